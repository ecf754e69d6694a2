// Package queue implements queue-navigation policy as pure functions.
// It decides which track comes next or previous given the queue, the
// current track and the shuffle/repeat settings, without side effects.
package queue

import "github.com/mkessler/strum/internal/core"

// Direction is the skip direction for Advance.
type Direction int

const (
	Next Direction = iota
	Previous
)

// OutcomeKind classifies what the caller should do.
type OutcomeKind int

const (
	// NoOp means nothing should change (empty queue, end of queue, ...).
	NoOp OutcomeKind = iota
	// Play means the caller should start the outcome's track from the top.
	Play
	// Restart means the caller should seek the current track back to zero.
	Restart
)

// Outcome is the result of an Advance decision.
type Outcome struct {
	Kind  OutcomeKind
	Track core.Track

	// ForcePlay is set on Restart outcomes that must also resume playback
	// (repeat-one wrapping a track end). Restart without ForcePlay keeps the
	// current play/pause state ("previous" near the start of a track).
	ForcePlay bool
}

// Advance computes the navigation outcome for a skip in the given direction.
// pick selects a random index in [0, n) and is only consulted when shuffle
// applies; callers pass their own source so the policy stays deterministic
// under test.
func Advance(dir Direction, q []core.Track, cur *core.Track, shuffle bool, repeat core.RepeatMode, pick func(n int) int) Outcome {
	if cur == nil || len(q) == 0 {
		return Outcome{Kind: NoOp}
	}

	if dir == Previous {
		idx := indexOf(q, cur.ID)
		if idx <= 0 {
			// At the head of the queue (or not in it at all) "previous"
			// rewinds instead of wrapping, so it always does something.
			return Outcome{Kind: Restart}
		}
		return Outcome{Kind: Play, Track: q[idx-1]}
	}

	if repeat == core.RepeatOne {
		return Outcome{Kind: Restart, ForcePlay: true}
	}

	if shuffle {
		// Uniform over the whole queue; the current track is not excluded,
		// so immediate repeats are possible.
		return Outcome{Kind: Play, Track: q[pick(len(q))]}
	}

	// An ad-hoc play that is not in the queue advances from index -1,
	// i.e. to the head of the queue.
	idx := indexOf(q, cur.ID)
	next := idx + 1
	if next >= len(q) {
		if repeat != core.RepeatAll {
			return Outcome{Kind: NoOp}
		}
		next = 0
	}
	return Outcome{Kind: Play, Track: q[next]}
}

// indexOf returns the index of the first track with the given id, or -1.
func indexOf(q []core.Track, id string) int {
	for i := range q {
		if q[i].ID == id {
			return i
		}
	}
	return -1
}
