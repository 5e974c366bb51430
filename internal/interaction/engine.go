package interaction

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidSequence is wrapped by every error New returns.
var ErrInvalidSequence = errors.New("invalid sequence")

// DiagnosticKind classifies a problem New found that does not stop the
// sequence from being evaluated.
type DiagnosticKind string

const (
	DanglingStateRef      DiagnosticKind = "dangling_state_ref"
	UnknownMessageType    DiagnosticKind = "unknown_message_type"
	DuplicateStateName    DiagnosticKind = "duplicate_state_name"
	UnknownTokenState     DiagnosticKind = "unknown_token_state"
	UnknownOptimizedState DiagnosticKind = "unknown_optimized_state"
	DroppedAutoMessage    DiagnosticKind = "dropped_auto_message"
)

// Diagnostic describes one soft problem in a sequence. Element names the
// offending part ("message:intro", "overlay:badge", "state:fade",
// "token_counter"); Ref is the name it failed to resolve, if any.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Element string         `json:"element"`
	Ref     string         `json:"ref,omitempty"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	return d.Element + ": " + d.Message
}

type options struct {
	strict bool
}

// Option configures New.
type Option func(*options)

// WithStrictReferences makes New reject sequences that would produce any
// diagnostic, instead of reporting it.
func WithStrictReferences() Option {
	return func(o *options) { o.strict = true }
}

// Engine evaluates one sequence. It is immutable after New and safe for
// concurrent use.
type Engine struct {
	seq      Sequence
	tl       timeline
	messages []compiledMessage
	overlays []compiledOverlay
	plan     columnPlan
	tokens   *tokenCounter
	diags    []Diagnostic
}

// New validates seq and resolves its state references into interval indices.
func New(seq Sequence, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	seq.States = slices.Clone(seq.States)
	seq.Messages = slices.Clone(seq.Messages)
	seq.Overlays = slices.Clone(seq.Overlays)
	seq.MessageTypes = maps.Clone(seq.MessageTypes)

	if err := validate(seq); err != nil {
		return nil, err
	}

	e := &Engine{
		seq: seq,
		tl:  newTimeline(seq.States),
	}
	e.checkStateNames()

	e.messages = make([]compiledMessage, len(seq.Messages))
	for i := range e.seq.Messages {
		def := &e.seq.Messages[i]
		element := "message:" + def.ID
		_, known := e.seq.MessageTypes[def.Type]
		if !known {
			e.report(UnknownMessageType, element, def.Type, fmt.Sprintf("message type %q is not registered; message is never rendered", def.Type))
		}
		e.messages[i] = compiledMessage{
			def:     def,
			visible: e.resolveAnchors(element, def.VisibleStates),
			fade:    e.resolveAll(element, def.FadeOutStates),
			known:   known,
		}
	}

	e.overlays = make([]compiledOverlay, len(seq.Overlays))
	for i := range e.seq.Overlays {
		def := &e.seq.Overlays[i]
		e.overlays[i] = compiledOverlay{
			def:     def,
			visible: e.resolveAnchors("overlay:"+def.ID, def.VisibleStates),
		}
	}

	e.plan = planColumns(seq.Layout, seq.Messages)
	for _, i := range e.plan.dropped {
		e.report(DroppedAutoMessage, "message:"+seq.Messages[i].ID, "", "column is auto but the layout assigns columns manually; message is never rendered")
	}

	e.tokens = compileTokenCounter(seq.TokenCounter, e.tl)
	e.checkTokenCounter()

	if o.strict && len(e.diags) > 0 {
		errs := make([]error, 0, len(e.diags))
		for _, d := range e.diags {
			errs = append(errs, errors.New(d.String()))
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidSequence, errors.Join(errs...))
	}
	return e, nil
}

func validate(seq Sequence) error {
	var errs []error
	for i, s := range seq.States {
		switch {
		case s.Name == "":
			errs = append(errs, fmt.Errorf("state %d has no name", i))
		case s.StartFrame < 0:
			errs = append(errs, fmt.Errorf("state %q starts at negative frame %d", s.Name, s.StartFrame))
		case s.EndFrame <= s.StartFrame:
			errs = append(errs, fmt.Errorf("state %q ends at frame %d, not after its start %d", s.Name, s.EndFrame, s.StartFrame))
		}
	}

	ids := make(map[string]bool, len(seq.Messages))
	for i, m := range seq.Messages {
		switch {
		case m.ID == "":
			errs = append(errs, fmt.Errorf("message %d has no id", i))
		case ids[m.ID]:
			errs = append(errs, fmt.Errorf("duplicate message id %q", m.ID))
		}
		ids[m.ID] = true
		if m.CustomOpacity != nil && (*m.CustomOpacity < 0 || *m.CustomOpacity > 1) {
			errs = append(errs, fmt.Errorf("message %q custom opacity %v is outside [0, 1]", m.ID, *m.CustomOpacity))
		}
	}

	ids = make(map[string]bool, len(seq.Overlays))
	for i, o := range seq.Overlays {
		switch {
		case o.ID == "":
			errs = append(errs, fmt.Errorf("overlay %d has no id", i))
		case ids[o.ID]:
			errs = append(errs, fmt.Errorf("duplicate overlay id %q", o.ID))
		}
		ids[o.ID] = true
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSequence, errors.Join(errs...))
}

func (e *Engine) report(kind DiagnosticKind, element, ref, msg string) {
	e.diags = append(e.diags, Diagnostic{Kind: kind, Element: element, Ref: ref, Message: msg})
}

func (e *Engine) checkStateNames() {
	for name, idx := range e.tl.byName {
		if len(idx) > 1 {
			e.report(DuplicateStateName, "state:"+name, "", fmt.Sprintf("declared %d times; references anchor on the first", len(idx)))
		}
	}
	slices.SortFunc(e.diags, func(a, b Diagnostic) int {
		return strings.Compare(a.Element, b.Element)
	})
}

// resolveAnchors maps names to interval indices in listed order. Unknown
// names are reported and left out, so the entry never starts through them.
func (e *Engine) resolveAnchors(element string, names []string) []int {
	out := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := e.tl.anchorIndex(name)
		if !ok {
			e.report(DanglingStateRef, element, name, fmt.Sprintf("visible state %q is not on the timeline", name))
			continue
		}
		out = append(out, i)
	}
	return out
}

func (e *Engine) resolveAll(element string, names []string) []int {
	var out []int
	for _, name := range names {
		idx := e.tl.indices(name)
		if len(idx) == 0 {
			e.report(DanglingStateRef, element, name, fmt.Sprintf("fade-out state %q is not on the timeline", name))
			continue
		}
		out = append(out, idx...)
	}
	return out
}

func (e *Engine) checkTokenCounter() {
	cfg := e.seq.TokenCounter
	if cfg == nil || !cfg.Enabled {
		return
	}
	names := make([]string, 0, len(cfg.StateTokenCounts))
	for name := range cfg.StateTokenCounts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if len(e.tl.indices(name)) == 0 {
			e.report(UnknownTokenState, "token_counter", name, fmt.Sprintf("token count for %q never applies", name))
		}
	}
	for _, name := range cfg.OptimizedStates {
		if len(e.tl.indices(name)) == 0 {
			e.report(UnknownOptimizedState, "token_counter", name, fmt.Sprintf("optimized state %q is not on the timeline", name))
		}
	}
}

// Diagnostics returns the soft problems found by New.
func (e *Engine) Diagnostics() []Diagnostic {
	return slices.Clone(e.diags)
}

// States returns the timeline in declared order.
func (e *Engine) States() []StateInterval {
	return slices.Clone(e.seq.States)
}

// Duration returns the number of frames up to and including the last interval
// end. Evaluation past it is valid; content holds its final state.
func (e *Engine) Duration() int {
	last := -1
	for _, s := range e.seq.States {
		last = max(last, s.EndFrame)
	}
	return last + 1
}

// Layout returns the column layout of the sequence.
func (e *Engine) Layout() Layout {
	return e.seq.Layout
}
