package interaction

// ActiveStates returns the names of the intervals that contain frame, in
// declared order. Interval bounds are inclusive on both ends.
func ActiveStates(states []StateInterval, frame int) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s.contains(frame) {
			out = append(out, s.Name)
		}
	}
	return out
}

// FadedOutStates returns the names of the intervals that ended before frame,
// in declared order.
func FadedOutStates(states []StateInterval, frame int) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s.endedBefore(frame) {
			out = append(out, s.Name)
		}
	}
	return out
}

func (s StateInterval) contains(frame int) bool {
	return s.StartFrame <= frame && frame <= s.EndFrame
}

func (s StateInterval) endedBefore(frame int) bool {
	return frame > s.EndFrame
}

func (s StateInterval) startedBy(frame int) bool {
	return frame >= s.StartFrame
}

// ramp maps frame linearly from [StartFrame, EndFrame] onto [0, 1] and clamps
// outside that range.
func (s StateInterval) ramp(frame int) float64 {
	return interpolate(frame, s.StartFrame, s.EndFrame)
}

func interpolate(frame, from, to int) float64 {
	if to <= from {
		if frame >= to {
			return 1
		}
		return 0
	}
	v := (float64(frame) - float64(from)) / (float64(to) - float64(from))
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// timeline is the indexed form of a sequence's states. References by name are
// resolved against it once, at construction.
type timeline struct {
	states []StateInterval
	byName map[string][]int
}

func newTimeline(states []StateInterval) timeline {
	t := timeline{
		states: states,
		byName: make(map[string][]int, len(states)),
	}
	for i, s := range states {
		t.byName[s.Name] = append(t.byName[s.Name], i)
	}
	return t
}

// anchorIndex returns the interval a reference by name resolves to. Duplicate
// names resolve to the first declared interval.
func (t timeline) anchorIndex(name string) (int, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return 0, false
	}
	return idx[0], true
}

// indices returns every interval declared under name.
func (t timeline) indices(name string) []int {
	return t.byName[name]
}

func (t timeline) anyActive(idx []int, frame int) bool {
	for _, i := range idx {
		if t.states[i].contains(frame) {
			return true
		}
	}
	return false
}

func (t timeline) anyEnded(idx []int, frame int) bool {
	for _, i := range idx {
		if t.states[i].endedBefore(frame) {
			return true
		}
	}
	return false
}
