package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/tui/styles"
)

// NowPlaying displays the currently playing track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(snap core.Intent, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if snap.Current == nil {
		content = styles.Muted.Render("Nothing playing. Press / to search.")
	} else {
		content = n.renderTrack(snap, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(snap core.Intent, width int) string {
	track := snap.Current

	icon := styles.StatusIcon(snap.Playing)
	title := styles.Title.Width(width - 4).Render(track.Title)
	artist := styles.Subtitle.Render(track.Artist)

	// Progress bar with times on either side.
	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	bar := styles.ProgressBar(snap.ProgressFraction(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		formatDuration(snap.Position),
		bar,
		formatDuration(track.Duration),
	)

	modes := fmt.Sprintf("vol %d%%", int(snap.Volume*100))
	if snap.Shuffle {
		modes += "  shuffle"
	}
	if snap.Repeat != core.RepeatOff {
		modes += "  repeat:" + string(snap.Repeat)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"",
		progress,
		"",
		styles.Muted.Render(modes),
	)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
