package interaction

import "slices"

// Column selects which display column a message is placed in when the layout
// does not auto-fill.
type Column string

const (
	ColumnLeft  Column = "left"
	ColumnRight Column = "right"
	ColumnAuto  Column = "auto"
)

// StateInterval is a named, inclusive [StartFrame, EndFrame] range on the
// sequence timeline. Intervals may overlap.
type StateInterval struct {
	Name       string `json:"name"`
	StartFrame int    `json:"start_frame"`
	EndFrame   int    `json:"end_frame"`
}

// NewState returns the interval that starts at start and lasts duration frames.
func NewState(name string, start, duration int) StateInterval {
	return StateInterval{Name: name, StartFrame: start, EndFrame: start + duration}
}

// MessageTypeConfig describes how messages of one type are presented. Styling
// fields are passed through to the renderer untouched.
type MessageTypeConfig struct {
	Background string
	Icon       Content[string]
	Label      Content[string]
	FontSize   string
	Padding    string
	Border     string
	BoxShadow  string
	FontWeight string
	FontStyle  string
}

// MessageDefinition is one authored message of a sequence.
type MessageDefinition struct {
	ID            string
	Type          string
	Content       Content[string]
	Column        Column
	VisibleStates []string
	FadeOutStates []string

	// CustomOpacity replaces the ramp opacity once the message has started.
	CustomOpacity *float64
}

// Position places an overlay on the canvas. Units are the renderer's.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OverlayElement is free-floating content that eases in with its earliest
// started state and never dims.
type OverlayElement struct {
	ID            string
	Content       Content[string]
	Position      Position
	VisibleStates []string
}

// Layout controls how messages are split into display columns.
type Layout struct {
	Columns  int
	AutoFill bool

	// MaxMessagesPerColumn caps the left column when AutoFill is set.
	// Zero means half of the messages, rounded up.
	MaxMessagesPerColumn int
}

// TokenCounterConfig drives the token readout of a sequence.
type TokenCounterConfig struct {
	Enabled          bool
	InitialTokens    int
	MaxTokens        int
	StateTokenCounts map[string]int
	OptimizedStates  []string
}

// Sequence is a complete authored script. It is read-only once handed to New.
type Sequence struct {
	Title        Content[string]
	Subtitle     Content[string]
	MessageTypes map[string]MessageTypeConfig
	States       []StateInterval
	Messages     []MessageDefinition
	Overlays     []OverlayElement
	Layout       Layout
	TokenCounter *TokenCounterConfig
}

// DerivedState is the per-frame view handed to computed content. It is built
// fresh for every evaluation and never shared between frames.
type DerivedState struct {
	CurrentFrame  int
	FPS           int
	ActiveStates  []string
	FadeOutStates []string
	TokenCount    int
	IsOptimized   bool
}

// IsActive reports whether a state named name is active at the current frame.
func (d DerivedState) IsActive(name string) bool {
	return slices.Contains(d.ActiveStates, name)
}

// HasFadedOut reports whether a state named name has ended before the current frame.
func (d DerivedState) HasFadedOut(name string) bool {
	return slices.Contains(d.FadeOutStates, name)
}
