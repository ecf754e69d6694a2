package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler/strum/internal/youtube"
)

var searchPage string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search YouTube for music",
	Long: `Search YouTube's music category and list matching tracks.

Examples:
  strum search "bohemian rhapsody"
  strum search lofi beats --page <token>   # Next page of an earlier search`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPage, "page", "", "Page token from a previous search")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := strings.Join(args, " ")
	client := youtube.New(cfg.YouTube.APIKey, cfg.YouTube.MaxResults, logger)

	res, err := client.Search(ctx, query, searchPage)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(res)
	}

	if res.RateLimited {
		fmt.Println("YouTube API quota exceeded; no results right now.")
		return nil
	}
	if len(res.Tracks) == 0 {
		fmt.Printf("No results found for '%s'\n", query)
		return nil
	}

	t := NewTable("#", "TITLE", "ARTIST", "DURATION", "ID")
	for i, track := range res.Tracks {
		t.Row(
			fmt.Sprintf("%d", i+1),
			TruncateString(track.Title, 50),
			TruncateString(track.Artist, 30),
			FormatDuration(track.Duration),
			track.ID,
		)
	}
	t.Flush()

	if res.NextPageToken != "" {
		fmt.Printf("\nMore results: strum search %q --page %s\n", query, res.NextPageToken)
	}
	return nil
}
