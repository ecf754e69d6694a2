package core

import "time"

// RepeatMode controls queue-repeat behavior.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// Valid reports whether m is a known repeat mode.
func (m RepeatMode) Valid() bool {
	switch m {
	case RepeatOff, RepeatAll, RepeatOne:
		return true
	}
	return false
}

// Cycle returns the next repeat mode in the off -> all -> one cycle.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// Intent is the authoritative description of what playback should be
// doing, independent of whether the external engine has caught up yet.
// Snapshots are value copies; mutations go through the store's command API.
type Intent struct {
	Current  *Track        `json:"current"`
	Playing  bool          `json:"playing"`
	Volume   float64       `json:"volume"` // 0..1
	Repeat   RepeatMode    `json:"repeat"`
	Shuffle  bool          `json:"shuffle"`
	Queue    []Track       `json:"queue"`
	Position time.Duration `json:"position"`

	// SeekSeq increments on every explicit seek request so the engine
	// binding can tell a user seek from its own position writes.
	SeekSeq uint64 `json:"-"`
}

// HasTrack returns true if there is a current track.
func (s *Intent) HasTrack() bool {
	return s != nil && s.Current != nil
}

// ProgressFraction returns playback progress in [0, 1].
// Unknown duration yields 0.
func (s *Intent) ProgressFraction() float64 {
	if s == nil || s.Current == nil || s.Current.Duration <= 0 {
		return 0
	}
	f := float64(s.Position) / float64(s.Current.Duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
