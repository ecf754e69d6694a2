package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/youtube"
)

var playShuffle bool

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Search for a track and play it",
	Long: `Search YouTube for a track, pick one, and start an interactive
playback session. Without arguments, opens the session with
recommendations to browse.

Examples:
  strum play                     # Open the player with recommendations
  strum play "bohemian rhapsody" # Search and pick a track to play
  strum play lofi beats --shuffle`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "Enable shuffle mode")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return runSession(nil, playShuffle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := youtube.New(cfg.YouTube.APIKey, cfg.YouTube.MaxResults, logger)
	res, err := client.Search(ctx, query, "")
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if res.RateLimited {
		return fmt.Errorf("youtube api quota exceeded, try again later")
	}
	if len(res.Tracks) == 0 {
		return fmt.Errorf("no results found for '%s'", query)
	}

	track, err := pickTrack(res.Tracks)
	if err != nil {
		return err
	}
	return runSession(track, playShuffle)
}

// pickTrack shows an interactive picker over the search results.
func pickTrack(tracks []core.Track) (*core.Track, error) {
	var options []huh.Option[string]
	for _, t := range tracks {
		label := t.Title
		if t.Artist != "" {
			label = fmt.Sprintf("%s — %s", t.Title, t.Artist)
		}
		if t.Duration > 0 {
			label += fmt.Sprintf(" (%s)", FormatDuration(t.Duration))
		}
		options = append(options, huh.NewOption(TruncateString(label, 76), t.ID))
	}

	var selectedID string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pick a track").
				Options(options...).
				Value(&selectedID),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	for i := range tracks {
		if tracks[i].ID == selectedID {
			return &tracks[i], nil
		}
	}
	return nil, fmt.Errorf("selected track not found")
}
