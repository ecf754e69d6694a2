package core

import "time"

// Track represents a playable track from the YouTube catalog.
// Tracks are immutable once constructed; identity is the video ID.
type Track struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Artist       string        `json:"artist"`
	ThumbnailURL string        `json:"thumbnail_url"`
	Duration     time.Duration `json:"duration"` // 0 means unknown
}

// WatchURL returns the youtube.com URL for the track.
func (t *Track) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + t.ID
}
