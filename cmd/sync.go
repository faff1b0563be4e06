package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/model"
	"github.com/vedsharma/pingforge/internal/storage"
)

func addEnvSyncCommands(envCmd *cobra.Command) {
	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Download environments from your pingforge account",
		Run:   runEnvPull,
	}

	pushCmd := &cobra.Command{
		Use:   "push <name>",
		Short: "Upload an environment to your pingforge account",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvPush,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file> [name...]",
		Short: "Write environments to a YAML or JSON file",
		Long: `Write environments to a file. The format follows the extension:
.json writes JSON, anything else YAML. With no names every environment
is exported.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runEnvExport,
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load environments and collections from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}

	envCmd.AddCommand(pullCmd, pushCmd, exportCmd, importCmd)
}

func runEnvPull(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	remoteEnvs, err := newBackend().ListEnvironments(ctx)
	exitOnError("Failed to fetch environments", err)

	store := openStore()
	defer store.Close()

	var created, updated int
	for _, e := range remoteEnvs {
		_, isNew, err := store.UpsertEnvironment(e)
		exitOnError(fmt.Sprintf("Failed to store environment '%s'", e.Name), err)
		if isNew {
			created++
		} else {
			updated++
		}
	}
	format.PrintSuccess(fmt.Sprintf("Pulled %d environments (%d new, %d updated)", len(remoteEnvs), created, updated))
}

func runEnvPush(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	env := mustEnvironment(store, args[0])

	ctx, cancel := signalContext()
	defer cancel()
	backend := newBackend()

	var (
		pushed *model.Environment
		err    error
	)
	if env.RemoteID != "" {
		pushed, err = backend.UpdateEnvironment(ctx, env.RemoteID, *env)
	} else {
		pushed, err = backend.CreateEnvironment(ctx, *env)
	}
	exitOnError("Failed to push environment", err)

	env.RemoteID = pushed.ID
	exitOnError("Failed to save environment", store.SaveEnvironment(*env))
	format.PrintSuccess(fmt.Sprintf("Environment '%s' pushed", env.Name))
}

func runEnvExport(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	var envs []model.Environment
	if len(args) == 1 {
		all, err := store.ListEnvironments()
		exitOnError("Failed to load environments", err)
		envs = all
	} else {
		for _, name := range args[1:] {
			envs = append(envs, *mustEnvironment(store, name))
		}
	}

	exitOnError("Failed to export", storage.WriteBundle(args[0], storage.Bundle{Environments: envs}))
	format.PrintSuccess(fmt.Sprintf("Exported %d environments to %s", len(envs), args[0]))
}

func runImport(cmd *cobra.Command, args []string) {
	bundle, err := storage.ReadBundle(args[0])
	exitOnError("Failed to read file", err)

	store := openStore()
	defer store.Close()

	envs, cols, err := store.ImportBundle(bundle)
	exitOnError("Failed to import", err)
	format.PrintSuccess(fmt.Sprintf("Imported %d environments and %d collections", envs, cols))
}
