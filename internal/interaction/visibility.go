package interaction

// FadeOutDimming is the factor applied to a faded-out message. Stale content
// is ghosted rather than hidden.
const FadeOutDimming = 0.3

// containerFadeFrames is the length of the container ease-in at frame zero.
const containerFadeFrames = 30

type compiledMessage struct {
	def     *MessageDefinition
	visible []int
	fade    []int
	known   bool
}

type compiledOverlay struct {
	def     *OverlayElement
	visible []int
}

// visibility is the per-frame display state of one message or overlay.
type visibility struct {
	opacity  float64
	fadedOut bool
}

// anchorRamp returns the ramp opacity of the earliest-starting interval among
// visible that has started by frame. Ties go to the first listed. started is
// false when none has started.
func (t timeline) anchorRamp(visible []int, frame int) (opacity float64, started bool) {
	anchor := -1
	for _, i := range visible {
		s := t.states[i]
		if !s.startedBy(frame) {
			continue
		}
		if anchor < 0 || s.StartFrame < t.states[anchor].StartFrame {
			anchor = i
		}
	}
	if anchor < 0 {
		return 0, false
	}
	return t.states[anchor].ramp(frame), true
}

func (t timeline) messageVisibility(m compiledMessage, frame int) visibility {
	raw, started := t.anchorRamp(m.visible, frame)
	if !started {
		return visibility{}
	}

	opacity := raw
	if m.def.CustomOpacity != nil {
		opacity = *m.def.CustomOpacity
	}
	faded := t.anyEnded(m.fade, frame)
	if faded {
		opacity *= FadeOutDimming
	}
	return visibility{opacity: opacity, fadedOut: faded}
}

func (t timeline) overlayVisibility(o compiledOverlay, frame int) visibility {
	opacity, _ := t.anchorRamp(o.visible, frame)
	return visibility{opacity: opacity}
}

func containerOpacity(frame int) float64 {
	return interpolate(frame, 0, containerFadeFrames)
}
