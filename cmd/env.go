package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/model"
	"github.com/vedsharma/pingforge/internal/storage"
)

var envDescription string

func init() {
	envCmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment"},
		Short:   "Manage environments and their variables",
		Long: `Manage environments: named, ordered sets of variables used to fill
{{name}} tokens in requests.

Example:
  pingforge env create staging
  pingforge env set staging base https://api.staging.example.com
  pingforge env use staging
  pingforge get '{{base}}/health'`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List environments (* marks the selected one)",
		Run:   runEnvList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty environment",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvCreate,
	}
	createCmd.Flags().StringVar(&envDescription, "description", "", "Environment description")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an environment's variables",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an environment",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvDelete,
	}

	setCmd := &cobra.Command{
		Use:   "set <env> <key> <value>",
		Short: "Set a variable (enabled)",
		Args:  cobra.ExactArgs(3),
		Run:   runEnvSet,
	}

	unsetCmd := &cobra.Command{
		Use:   "unset <env> <key>",
		Short: "Remove a variable",
		Args:  cobra.ExactArgs(2),
		Run:   runEnvUnset,
	}

	enableCmd := &cobra.Command{
		Use:   "enable <env> <key>",
		Short: "Enable a variable",
		Args:  cobra.ExactArgs(2),
		Run:   runEnvToggle(true),
	}

	disableCmd := &cobra.Command{
		Use:   "disable <env> <key>",
		Short: "Disable a variable without removing it",
		Args:  cobra.ExactArgs(2),
		Run:   runEnvToggle(false),
	}

	useCmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Select the environment used by requests",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvUse,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the environment selection",
		Run:   runEnvClear,
	}

	envCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd, setCmd, unsetCmd,
		enableCmd, disableCmd, useCmd, clearCmd)
	addEnvSyncCommands(envCmd)
	rootCmd.AddCommand(envCmd)
}

func environmentNames(store *storage.SQLiteStorage) []string {
	envs, err := store.ListEnvironments()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(envs))
	for _, e := range envs {
		names = append(names, e.Name)
	}
	return names
}

// mustEnvironment loads an environment by name or exits with a suggestion.
func mustEnvironment(store *storage.SQLiteStorage, name string) *model.Environment {
	env, err := store.GetEnvironment(name)
	exitOnError("Failed to load environment", err)
	if env == nil {
		format.PrintError(notFoundMessage("Environment", name, environmentNames(store)))
		os.Exit(1)
	}
	return env
}

func runEnvList(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	envs, err := store.ListEnvironments()
	exitOnError("Failed to load environments", err)

	selected, err := settingsFile().SelectedEnvironment()
	if err != nil {
		logger.Warn("could not read selected environment", "error", err)
	}
	format.PrintEnvironmentList(os.Stdout, envs, selected)
}

func runEnvCreate(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	_, err := store.CreateEnvironment(model.Environment{Name: args[0], Description: envDescription})
	exitOnError("Failed to create environment", err)
	format.PrintSuccess(fmt.Sprintf("Environment '%s' created", args[0]))
}

func runEnvShow(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	format.PrintEnvironment(os.Stdout, mustEnvironment(store, args[0]))
}

func runEnvDelete(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	id, err := store.DeleteEnvironment(args[0])
	exitOnError("Failed to delete environment", err)
	if id == "" {
		format.PrintError(notFoundMessage("Environment", args[0], environmentNames(store)))
		os.Exit(1)
	}

	cleared, err := settingsFile().ClearSelectionIf(id)
	exitOnError("Failed to update selection", err)
	format.PrintSuccess(fmt.Sprintf("Environment '%s' deleted", args[0]))
	if cleared {
		format.PrintInfo("No environment is selected now")
	}
}

func runEnvSet(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	env := mustEnvironment(store, args[0])
	env.Set(args[1], args[2])
	exitOnError("Failed to save environment", store.SaveEnvironment(*env))
	format.PrintSuccess(fmt.Sprintf("%s set in '%s'", args[1], env.Name))
}

func runEnvUnset(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	env := mustEnvironment(store, args[0])
	if !env.Unset(args[1]) {
		format.PrintError(fmt.Sprintf("Variable '%s' not found in '%s'", args[1], env.Name))
		os.Exit(1)
	}
	exitOnError("Failed to save environment", store.SaveEnvironment(*env))
	format.PrintSuccess(fmt.Sprintf("%s removed from '%s'", args[1], env.Name))
}

func runEnvToggle(enabled bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		store := openStore()
		defer store.Close()

		env := mustEnvironment(store, args[0])
		if !env.SetEnabled(args[1], enabled) {
			format.PrintError(fmt.Sprintf("Variable '%s' not found in '%s'", args[1], env.Name))
			os.Exit(1)
		}
		exitOnError("Failed to save environment", store.SaveEnvironment(*env))

		state := "disabled"
		if enabled {
			state = "enabled"
		}
		format.PrintSuccess(fmt.Sprintf("%s %s in '%s'", args[1], state, env.Name))
	}
}

func runEnvUse(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	env := mustEnvironment(store, args[0])
	exitOnError("Failed to save selection", settingsFile().SelectEnvironment(env.ID))
	format.PrintSuccess(fmt.Sprintf("Using environment '%s'", env.Name))
}

func runEnvClear(cmd *cobra.Command, args []string) {
	exitOnError("Failed to save selection", settingsFile().SelectEnvironment(""))
	format.PrintSuccess("Environment selection cleared")
}
