package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/storage"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Run:   runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Run:   runHistoryClear,
	}

	historyCmd.AddCommand(showCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.LoadHistory(limit)
	exitOnError("Failed to load history", err)
	format.PrintHistoryList(entries, limit)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	identifier := args[0]

	// 1-based index into the newest-first listing
	if index, err := strconv.Atoi(identifier); err == nil && index > 0 && index <= storage.HistoryLimit {
		entries, err := store.LoadHistory(index)
		exitOnError("Failed to load history", err)
		if index <= len(entries) {
			format.PrintHistoryDetail(&entries[index-1])
			return
		}
	}

	entry, err := store.GetHistoryEntry(identifier)
	exitOnError("Failed to load history", err)
	if entry == nil {
		format.PrintError(fmt.Sprintf("Request not found: %s", identifier))
		os.Exit(1)
	}
	format.PrintHistoryDetail(entry)
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	store := openStore()
	defer store.Close()

	exitOnError("Failed to clear history", store.ClearHistory())
	format.PrintSuccess("History cleared")
}
