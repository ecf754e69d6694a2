package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkessler/strum/internal/apicache"
	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/recommend"
	"github.com/mkessler/strum/internal/youtube"
)

var recommendLimit int

var recommendCmd = &cobra.Command{
	Use:     "recommend",
	Aliases: []string{"rec"},
	Short:   "Show track recommendations",
	Long:    `List tracks from a random sample of music categories.`,
	RunE:    runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", recommend.DefaultLimit, "Number of tracks to show")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := youtube.New(cfg.YouTube.APIKey, cfg.YouTube.MaxResults, logger)
	cache := apicache.New[[]core.Track](logger)
	defer cache.Close()

	asm := recommend.New(client, cache, nil, nil, logger)
	tracks, err := asm.Random(ctx, recommendLimit)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(tracks)
	}

	if len(tracks) == 0 {
		fmt.Println("No recommendations right now.")
		return nil
	}

	t := NewTable("#", "TITLE", "ARTIST", "DURATION", "ID")
	for i, track := range tracks {
		t.Row(
			fmt.Sprintf("%d", i+1),
			TruncateString(track.Title, 50),
			TruncateString(track.Artist, 30),
			FormatDuration(track.Duration),
			track.ID,
		)
	}
	t.Flush()
	return nil
}
