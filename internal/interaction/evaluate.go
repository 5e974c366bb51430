package interaction

import "slices"

// RenderedStyle is a message type's presentation with icon and label resolved.
type RenderedStyle struct {
	Background string `json:"background,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Label      string `json:"label,omitempty"`
	FontSize   string `json:"font_size,omitempty"`
	Padding    string `json:"padding,omitempty"`
	Border     string `json:"border,omitempty"`
	BoxShadow  string `json:"box_shadow,omitempty"`
	FontWeight string `json:"font_weight,omitempty"`
	FontStyle  string `json:"font_style,omitempty"`
}

// RenderedMessage is the display state of one message at one frame.
type RenderedMessage struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Style    RenderedStyle `json:"style"`
	Content  string        `json:"content"`
	Opacity  float64       `json:"opacity"`
	FadedOut bool          `json:"faded_out"`
}

// Visible reports whether the message shows at all.
func (m RenderedMessage) Visible() bool {
	return m.Opacity > 0
}

// RenderedOverlay is the display state of one overlay at one frame.
type RenderedOverlay struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Position Position `json:"position"`
	Opacity  float64  `json:"opacity"`
}

// Columns holds the rendered messages of each display column.
type Columns struct {
	Left  []RenderedMessage `json:"left"`
	Right []RenderedMessage `json:"right"`
}

// Snapshot is the complete display state of a sequence at one frame.
type Snapshot struct {
	Frame            int               `json:"frame"`
	FPS              int               `json:"fps"`
	Title            string            `json:"title"`
	Subtitle         string            `json:"subtitle,omitempty"`
	ContainerOpacity float64           `json:"container_opacity"`
	ActiveStates     []string          `json:"active_states"`
	Columns          Columns           `json:"columns"`
	Overlays         []RenderedOverlay `json:"overlays"`
	TokenCounter     *TokenReadout     `json:"token_counter,omitempty"`
}

// Message returns the rendered message with the given id from either column.
func (s Snapshot) Message(id string) (RenderedMessage, bool) {
	for _, col := range [][]RenderedMessage{s.Columns.Left, s.Columns.Right} {
		for _, m := range col {
			if m.ID == id {
				return m, true
			}
		}
	}
	return RenderedMessage{}, false
}

// Overlay returns the rendered overlay with the given id.
func (s Snapshot) Overlay(id string) (RenderedOverlay, bool) {
	for _, o := range s.Overlays {
		if o.ID == id {
			return o, true
		}
	}
	return RenderedOverlay{}, false
}

// Evaluate builds an engine for seq and evaluates it once.
func Evaluate(seq Sequence, frame, fps int) (Snapshot, error) {
	e, err := New(seq)
	if err != nil {
		return Snapshot{}, err
	}
	return e.Evaluate(frame, fps), nil
}

// Evaluate returns the snapshot for frame. It never fails: unknown references
// stay invisible, messages of unregistered types are skipped, and frames
// outside the timeline clamp.
func (e *Engine) Evaluate(frame, fps int) Snapshot {
	d, tokens := e.derive(frame, fps)

	snap := Snapshot{
		Frame:            frame,
		FPS:              fps,
		Title:            e.seq.Title.Resolve(d),
		ContainerOpacity: containerOpacity(frame),
		ActiveStates:     slices.Clone(d.ActiveStates),
		Columns: Columns{
			Left:  e.renderColumn(e.plan.left, d),
			Right: e.renderColumn(e.plan.right, d),
		},
		Overlays:     e.renderOverlays(d),
		TokenCounter: tokens,
	}
	if e.seq.Subtitle.IsSet() {
		snap.Subtitle = e.seq.Subtitle.Resolve(d)
	}
	return snap
}

// Derive returns the derived state computed content sees at frame.
func (e *Engine) Derive(frame, fps int) DerivedState {
	d, _ := e.derive(frame, fps)
	return d
}

func (e *Engine) derive(frame, fps int) (DerivedState, *TokenReadout) {
	d := DerivedState{
		CurrentFrame:  frame,
		FPS:           fps,
		ActiveStates:  ActiveStates(e.tl.states, frame),
		FadeOutStates: FadedOutStates(e.tl.states, frame),
	}
	if e.tokens == nil {
		return d, nil
	}
	r := e.tokens.evaluate(e.tl, frame)
	d.TokenCount = r.Tokens
	d.IsOptimized = r.IsOptimized
	return d, &r
}

func (e *Engine) renderColumn(idx []int, d DerivedState) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(idx))
	for _, i := range idx {
		m := e.messages[i]
		if !m.known {
			continue
		}
		vis := e.tl.messageVisibility(m, d.CurrentFrame)
		out = append(out, RenderedMessage{
			ID:       m.def.ID,
			Type:     m.def.Type,
			Style:    renderStyle(e.seq.MessageTypes[m.def.Type], d),
			Content:  m.def.Content.Resolve(d),
			Opacity:  vis.opacity,
			FadedOut: vis.fadedOut,
		})
	}
	return out
}

func (e *Engine) renderOverlays(d DerivedState) []RenderedOverlay {
	out := make([]RenderedOverlay, 0, len(e.overlays))
	for _, o := range e.overlays {
		vis := e.tl.overlayVisibility(o, d.CurrentFrame)
		out = append(out, RenderedOverlay{
			ID:       o.def.ID,
			Content:  o.def.Content.Resolve(d),
			Position: o.def.Position,
			Opacity:  vis.opacity,
		})
	}
	return out
}

func renderStyle(cfg MessageTypeConfig, d DerivedState) RenderedStyle {
	return RenderedStyle{
		Background: cfg.Background,
		Icon:       cfg.Icon.Resolve(d),
		Label:      cfg.Label.Resolve(d),
		FontSize:   cfg.FontSize,
		Padding:    cfg.Padding,
		Border:     cfg.Border,
		BoxShadow:  cfg.BoxShadow,
		FontWeight: cfg.FontWeight,
		FontStyle:  cfg.FontStyle,
	}
}
