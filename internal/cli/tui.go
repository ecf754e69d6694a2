package cli

import (
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive player",
	Long: `Launch the interactive terminal player.

The player provides:
  • Now Playing - current track and progress
  • Queue - upcoming tracks
  • Browse - recommendations and search results
  • History - recently played tracks

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  Space        Play/Pause
  n            Next track
  p            Previous track
  s            Toggle shuffle
  r            Cycle repeat mode
  +/-          Volume up/down
  Tab          Switch panel`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return runSession(nil, false)
}
