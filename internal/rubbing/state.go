package rubbing

import (
	"strconv"
	"time"
)

// State is the mutable session state of one monitored subject: a motion
// tracker per hand identity plus the alert counters. It is owned by the
// caller and passed to every Engine call. A State is not safe for concurrent
// use; give each capture stream its own.
type State struct {
	historySize int
	trackers    map[string]*MotionTracker

	consecutive int
	lastAlert   time.Time
	alerted     bool
	alerts      int
}

func newState(historySize int) *State {
	return &State{
		historySize: historySize,
		trackers:    make(map[string]*MotionTracker),
	}
}

// tracker returns the motion tracker for a hand identity, creating it on first use.
func (s *State) tracker(key string) *MotionTracker {
	t, ok := s.trackers[key]
	if !ok {
		t = NewMotionTracker(s.historySize)
		s.trackers[key] = t
	}
	return t
}

// resetAll clears every hand's motion history.
func (s *State) resetAll() {
	for _, t := range s.trackers {
		t.Reset()
	}
}

// retain drops the trackers of hands that are not in keep.
func (s *State) retain(keep map[string]bool) {
	for key := range s.trackers {
		if !keep[key] {
			delete(s.trackers, key)
		}
	}
}

// ConsecutiveFrames returns the current run of rubbing frames.
func (s *State) ConsecutiveFrames() int {
	return s.consecutive
}

// LastAlert returns the time of the last fired alert and whether one has fired.
func (s *State) LastAlert() (time.Time, bool) {
	return s.lastAlert, s.alerted
}

// alertCount returns how many alerts fired during the session.
func (s *State) alertCount() int {
	return s.alerts
}

// HistoryLen returns the motion history length for a hand identity.
// Unknown identities have an empty history.
func (s *State) HistoryLen(key string) int {
	if t, ok := s.trackers[key]; ok {
		return t.Len()
	}
	return 0
}

// TotalHistoryLen returns the summed motion history length of every hand.
func (s *State) TotalHistoryLen() int {
	n := 0
	for _, t := range s.trackers {
		n += t.Len()
	}
	return n
}

// HandKey returns the identity used to keep a hand's motion history apart
// from other hands. It is the reported handedness, falling back to the hand's
// position in the frame when the handedness is unknown.
func HandKey(handedness string, slot int) string {
	if handedness != "" {
		return handedness
	}
	return "hand-" + strconv.Itoa(slot)
}
