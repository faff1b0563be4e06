package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
)

var sessionDescription string

func init() {
	sessionCmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Manage webhook capture sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your capture sessions",
		Run:   runSessionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a capture session and print its webhook URL",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionCreate,
	}
	createCmd.Flags().StringVar(&sessionDescription, "description", "", "Session description")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a capture session and its captured requests",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionDelete,
	}

	sessionCmd.AddCommand(listCmd, createCmd, deleteCmd)
	addRuleCommands(sessionCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionList(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	backend := newBackend()
	sessions, err := backend.ListSessions(ctx)
	exitOnError("Failed to list sessions", err)
	format.PrintSessions(os.Stdout, sessions, backend.WebhookURL)
}

func runSessionCreate(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	backend := newBackend()
	s, err := backend.CreateSession(ctx, args[0], sessionDescription)
	exitOnError("Failed to create session", err)

	format.PrintSuccess(fmt.Sprintf("Session '%s' created (%s)", s.Name, s.ID))
	format.PrintInfo(fmt.Sprintf("Send requests to %s", backend.WebhookURL(s.WebhookURL)))
}

func runSessionDelete(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	exitOnError("Failed to delete session", newBackend().DeleteSession(ctx, args[0]))
	format.PrintSuccess(fmt.Sprintf("Session '%s' deleted", args[0]))
}
