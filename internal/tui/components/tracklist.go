package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mkessler/strum/internal/core"
	"github.com/mkessler/strum/internal/tui/styles"
)

// TrackList is a selectable, scrolling list of tracks. It backs the
// queue, browse and history panels.
type TrackList struct {
	title  string
	empty  string
	cursor int
	offset int
}

// NewTrackList creates a list with a panel title and empty-state message.
func NewTrackList(title, empty string) *TrackList {
	return &TrackList{title: title, empty: empty}
}

// Cursor returns the selected index.
func (l *TrackList) Cursor() int {
	return l.cursor
}

// MoveDown moves the selection down within n items.
func (l *TrackList) MoveDown(n int) {
	if l.cursor < n-1 {
		l.cursor++
	}
}

// MoveUp moves the selection up.
func (l *TrackList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// Reset returns the selection to the top.
func (l *TrackList) Reset() {
	l.cursor = 0
	l.offset = 0
}

// Render renders the list panel. currentID highlights the playing track.
func (l *TrackList) Render(tracks []core.Track, currentID string, width, height int, focused bool) string {
	title := styles.PanelTitle(l.title, focused)

	var content string
	if len(tracks) == 0 {
		content = styles.Muted.Render(l.empty)
	} else {
		content = l.renderTracks(tracks, currentID, width-4, height-4)
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

func (l *TrackList) renderTracks(tracks []core.Track, currentID string, width, maxLines int) string {
	if l.cursor >= len(tracks) {
		l.cursor = len(tracks) - 1
	}

	// Keep the cursor inside the visible window.
	visible := maxLines - 1
	if visible < 1 {
		visible = 1
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}

	start := l.offset
	end := start + visible
	if end > len(tracks) {
		end = len(tracks)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		track := tracks[i]
		num := fmt.Sprintf("%2d.", i+1)
		title, artist := fitTitleArtist(track.Title, track.Artist, width-9)

		var line string
		switch {
		case track.ID == currentID && currentID != "":
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s — %s", num, title, artist))
		case i == l.cursor:
			line = styles.Selected.Render(fmt.Sprintf("%s > %s — %s", num, title, artist))
		default:
			line = fmt.Sprintf("%s   %s — %s",
				styles.Dim.Render(num),
				title,
				styles.Muted.Render(artist))
		}
		lines = append(lines, line)
	}

	if end < len(tracks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(tracks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// fitTitleArtist truncates title and artist into the available width,
// giving the artist at least a third of the space.
func fitTitleArtist(title, artist string, available int) (string, string) {
	if len(title)+len(artist) <= available {
		return title, artist
	}

	minArtist := available / 3
	if minArtist < 10 {
		minArtist = 10
	}
	if minArtist > available-10 {
		minArtist = available - 10
	}

	artistSpace := minArtist
	if len(artist) < artistSpace {
		artistSpace = len(artist)
	}
	return truncate(title, available-artistSpace), truncate(artist, artistSpace)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
