package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/model"
	"github.com/vedsharma/pingforge/internal/storage"
	"github.com/vedsharma/pingforge/internal/vars"
)

var collectionDescription string

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage request collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Run:   runCollectionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionCreate,
	}
	createCmd.Flags().StringVar(&collectionDescription, "description", "", "Collection description")
	createCmd.Flags().StringVarP(&envName, "env", "e", "", "Environment the collection runs with")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show requests in a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionDelete,
	}

	addCmd := &cobra.Command{
		Use:   "add <collection> <name> <method> <url>",
		Short: "Add a request to a collection",
		Long: `Add a request to a collection. Templates are stored unresolved.

Example:
  pingforge collection add my-api "Get Users" GET '{{base}}/users' --bearer '{{token}}'`,
		Args: cobra.ExactArgs(4),
		Run:  runCollectionAdd,
	}
	addModelFlags(addCmd)

	runCmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run all requests in a collection",
		Long: `Run every request of a collection in order. Variables come from -e, then
the collection's own environment, then the selected environment.`,
		Args: cobra.ExactArgs(1),
		Run:  runCollectionRun,
	}
	runCmd.Flags().StringVarP(&envName, "env", "e", "", "Environment to resolve variables from")
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")

	pushCmd := &cobra.Command{
		Use:   "push <name>",
		Short: "Upload a collection to your pingforge account",
		Args:  cobra.ExactArgs(1),
		Run:   runCollectionPush,
	}

	exportCmd := &cobra.Command{
		Use:   "export <file> [name...]",
		Short: "Write collections to a YAML or JSON file",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCollectionExport,
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load environments and collections from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}

	collectionCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd, addCmd, runCmd, pushCmd, exportCmd, importCmd)
	rootCmd.AddCommand(collectionCmd)
}

func collectionNames(store *storage.SQLiteStorage) []string {
	cols, err := store.ListCollections()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}

func mustCollection(store *storage.SQLiteStorage, name string) *model.Collection {
	col, err := store.GetCollection(name)
	exitOnError("Failed to load collection", err)
	if col == nil {
		format.PrintError(notFoundMessage("Collection", name, collectionNames(store)))
		os.Exit(1)
	}
	return col
}

func runCollectionList(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	cols, err := store.ListCollections()
	exitOnError("Failed to load collections", err)
	format.PrintCollectionList(cols)
}

func runCollectionCreate(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	col := model.Collection{Name: args[0], Description: collectionDescription}
	if envName != "" {
		col.EnvironmentID = mustEnvironment(store, envName).ID
	}
	_, err := store.CreateCollection(col)
	exitOnError("Failed to create collection", err)
	format.PrintSuccess(fmt.Sprintf("Collection '%s' created", args[0]))
}

func runCollectionShow(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	format.PrintCollectionRequests(mustCollection(store, args[0]))
}

func runCollectionDelete(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	deleted, err := store.DeleteCollection(args[0])
	exitOnError("Failed to delete collection", err)
	if !deleted {
		format.PrintError(notFoundMessage("Collection", args[0], collectionNames(store)))
		os.Exit(1)
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' deleted", args[0]))
}

func runCollectionAdd(cmd *cobra.Command, args []string) {
	collectionName, requestName := args[0], args[1]

	method, ok := model.ParseMethod(args[2])
	if !ok {
		format.PrintError(fmt.Sprintf("Unsupported method '%s'", args[2]))
		os.Exit(1)
	}

	req, err := requestFromFlags(method, args[3], bodyFromFlag())
	exitOnError("Invalid request", err)

	store := openStore()
	defer store.Close()

	_, err = store.AddToCollection(collectionName, model.SavedRequest{Name: requestName, Request: req})
	exitOnError("Failed to add request", err)
	format.PrintSuccess(fmt.Sprintf("Request '%s' added to collection '%s'", requestName, collectionName))
}

func runCollectionRun(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	store := openStore()
	defer store.Close()

	col := mustCollection(store, args[0])
	if len(col.Requests) == 0 {
		format.PrintError(fmt.Sprintf("Collection '%s' is empty", col.Name))
		os.Exit(1)
	}

	env := collectionEnvironment(store, col)
	resolver := vars.NewResolver(env)
	client := newHTTPClient()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Running %d requests from collection '%s'", len(col.Requests), col.Name)
	if env != nil {
		fmt.Printf(" with environment '%s'", env.Name)
	}
	fmt.Print("\n\n")

	failed := 0
	for i, saved := range col.Requests {
		if ctx.Err() != nil {
			break
		}
		label := saved.Name
		if label == "" {
			label = fmt.Sprintf("%s %s", saved.Request.Method, saved.Request.URL)
		}
		fmt.Printf("[%d/%d] %s\n", i+1, len(col.Requests), label)

		req := saved.Request
		req.URL = resolveAlias(store, req.URL)
		compiled, resp, err := client.Send(ctx, req, resolver)
		if err != nil {
			format.PrintError(fmt.Sprintf("Invalid request: %v", err))
			failed++
			fmt.Println()
			continue
		}
		format.PrintMissingVariables(missingIn(compiled))
		format.PrintResponse(resp, verbose)
		if resp.IsNetworkError() || resp.Status >= 400 {
			failed++
		}
		if !noHistory {
			saveToHistory(store, compiled, req.Auth, resp)
		}
		fmt.Println()
	}

	if failed > 0 {
		format.PrintError(fmt.Sprintf("%d of %d requests failed in '%s'", failed, len(col.Requests), col.Name))
		os.Exit(1)
	}
	format.PrintSuccess(fmt.Sprintf("Completed running collection '%s'", col.Name))
}

// collectionEnvironment picks -e, then the collection's environment, then
// the selected one.
func collectionEnvironment(store *storage.SQLiteStorage, col *model.Collection) *model.Environment {
	if envName == "" && col.EnvironmentID != "" {
		env, err := store.GetEnvironmentByID(col.EnvironmentID)
		exitOnError("Failed to load environment", err)
		if env != nil {
			return env
		}
		logger.Warn("collection environment no longer exists", "collection", col.Name, "id", col.EnvironmentID)
	}
	return activeEnvironment(store, envName)
}

func runCollectionPush(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	col := mustCollection(store, args[0])

	ctx, cancel := signalContext()
	defer cancel()
	backend := newBackend()

	payload := *col
	if payload.EnvironmentID != "" {
		env, err := store.GetEnvironmentByID(payload.EnvironmentID)
		exitOnError("Failed to load environment", err)
		payload.EnvironmentID = ""
		if env != nil {
			payload.EnvironmentID = env.RemoteID
		}
	}

	created, err := backend.CreateCollection(ctx, payload)
	exitOnError("Failed to push collection", err)
	for _, r := range col.Requests {
		_, err := backend.AddCollectionRequest(ctx, created.ID, model.SavedRequest{Name: r.Name, Request: r.Request})
		exitOnError(fmt.Sprintf("Failed to push request '%s'", r.Name), err)
	}

	exitOnError("Failed to save collection", store.SetCollectionRemoteID(col.ID, created.ID))
	format.PrintSuccess(fmt.Sprintf("Collection '%s' pushed with %d requests", col.Name, len(col.Requests)))
}

func runCollectionExport(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	var cols []model.Collection
	if len(args) == 1 {
		all, err := store.ListCollections()
		exitOnError("Failed to load collections", err)
		cols = all
	} else {
		for _, name := range args[1:] {
			cols = append(cols, *mustCollection(store, name))
		}
	}

	exitOnError("Failed to export", storage.WriteBundle(args[0], storage.Bundle{Collections: cols}))
	format.PrintSuccess(fmt.Sprintf("Exported %d collections to %s", len(cols), args[0]))
}
