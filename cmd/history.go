package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/radiomoe/internal/archive"
	"github.com/jfmyers9/radiomoe/internal/config"
)

var historyCount int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently announced tracks",
	Long: `List recently announced tracks from the local archive,
most recent first.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 20, "Number of tracks to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	tracks, err := archive.Open(filepath.Join(dataDir, "tracks.db"))
	if err != nil {
		return fmt.Errorf("failed to open track archive: %w", err)
	}
	defer tracks.Close()

	entries, err := tracks.Recent(ctx, historyCount)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No tracks recorded yet. Run 'radiomoe listen' first.")
		return nil
	}

	for _, e := range entries {
		when := e.AnnouncedAt.Local().Format("2006-01-02 15:04")
		fmt.Printf("%s  [%s]  %s - %s\n", when, e.Station, e.Artist, e.Title)
	}
	return nil
}
