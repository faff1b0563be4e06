package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/storage"
)

func init() {
	aliasCmd := &cobra.Command{
		Use:     "alias",
		Aliases: []string{"a"},
		Short:   "Manage URL aliases",
		Long: `Manage URL aliases for frequently used endpoints.

An alias stands for a base URL, so 'hooks/orders' expands to
'https://hooks.example.com/api/orders' before variables are resolved.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all aliases",
		Run:   runAliasList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <url>",
		Short: "Create or replace an alias",
		Long: `Create an alias for a base URL. The URL may contain {{variables}}.

Example:
  pingforge alias create hooks '{{base}}/api'
  pingforge get hooks/orders -e staging`,
		Args: cobra.ExactArgs(2),
		Run:  runAliasCreate,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an alias",
		Args:  cobra.ExactArgs(1),
		Run:   runAliasShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an alias",
		Args:  cobra.ExactArgs(1),
		Run:   runAliasDelete,
	}

	aliasCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd)
	rootCmd.AddCommand(aliasCmd)
}

func aliasNames(store *storage.SQLiteStorage) []string {
	aliases, err := store.LoadAliases()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(aliases.Aliases))
	for name := range aliases.Aliases {
		names = append(names, name)
	}
	return names
}

func runAliasList(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	aliases, err := store.LoadAliases()
	exitOnError("Failed to load aliases", err)
	format.PrintAliasList(aliases)
}

func runAliasCreate(cmd *cobra.Command, args []string) {
	name, url := args[0], args[1]

	store := openStore()
	defer store.Close()

	exitOnError("Failed to create alias", store.CreateAlias(name, url))
	format.PrintSuccess(fmt.Sprintf("Alias '%s' created for %s", name, url))
}

func runAliasShow(cmd *cobra.Command, args []string) {
	name := args[0]

	store := openStore()
	defer store.Close()

	url, exists, err := store.GetAlias(name)
	exitOnError("Failed to load alias", err)
	if !exists {
		format.PrintError(notFoundMessage("Alias", name, aliasNames(store)))
		os.Exit(1)
	}
	format.PrintAlias(name, url)
}

func runAliasDelete(cmd *cobra.Command, args []string) {
	name := args[0]

	store := openStore()
	defer store.Close()

	deleted, err := store.DeleteAlias(name)
	exitOnError("Failed to delete alias", err)
	if !deleted {
		format.PrintError(notFoundMessage("Alias", name, aliasNames(store)))
		os.Exit(1)
	}
	format.PrintSuccess(fmt.Sprintf("Alias '%s' deleted", name))
}
