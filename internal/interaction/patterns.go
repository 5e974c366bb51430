package interaction

import "fmt"

// Frame budgets used by the pattern builders.
const (
	containerState      = "container"
	defaultStartFrame   = 30
	defaultStepFrames   = 15
	userFrames          = 10
	thinkingFrames      = 10
	toolFrames          = 8
	assistantFrames     = 15
	summaryFrames       = 50
	tokensPerOriginal   = 200
	summaryTokens       = 400
	defaultMaxTokens    = 128000
	linearInitialTokens = 100
)

// Step is one message of a builder-generated sequence.
type Step struct {
	ID      string
	Type    string
	Content string

	// Duration is the step's interval length in frames; zero uses the
	// builder default.
	Duration int
}

// LinearOptions tunes LinearSequence. Zero fields take defaults.
type LinearOptions struct {
	StartFrame      int
	DefaultDuration int
	Columns         int
	TokenCounter    bool
}

// LinearSequence lays steps out back to back after a container fade. Each
// message becomes visible at its own state and stays listed for every later one.
func LinearSequence(title string, steps []Step, opts LinearOptions) Sequence {
	start := orDefault(opts.StartFrame, defaultStartFrame)
	dur := orDefault(opts.DefaultDuration, defaultStepFrames)

	states := []StateInterval{NewState(containerState, 0, defaultStartFrame)}
	names := make([]string, 0, len(steps))
	frame := start
	for i, st := range steps {
		name := fmt.Sprintf("message_%d", i)
		d := orDefault(st.Duration, dur)
		states = append(states, NewState(name, frame, d))
		names = append(names, name)
		frame += d
	}

	messages := make([]MessageDefinition, 0, len(steps))
	for i, st := range steps {
		messages = append(messages, MessageDefinition{
			ID:            st.ID,
			Type:          st.Type,
			Content:       Text(st.Content),
			Column:        ColumnAuto,
			VisibleStates: append([]string(nil), names[i:]...),
		})
	}

	seq := Sequence{
		Title:        Text(title),
		MessageTypes: DefaultMessageTypes(),
		States:       states,
		Messages:     messages,
		Layout:       Layout{Columns: orDefault(opts.Columns, 1), AutoFill: true},
	}
	if opts.TokenCounter {
		seq.TokenCounter = &TokenCounterConfig{
			Enabled:          true,
			InitialTokens:    linearInitialTokens,
			MaxTokens:        defaultMaxTokens,
			StateTokenCounts: map[string]int{},
		}
	}
	return seq
}

// ToolExchange is one tool call and its result inside an Exchange.
type ToolExchange struct {
	Call   string
	Result string
}

// Exchange is one user turn and the assistant's answer.
type Exchange struct {
	User      string
	Thinking  string
	Tools     []ToolExchange
	Assistant string
}

// ConversationOptions tunes ConversationFlow. Zero fields take defaults.
type ConversationOptions struct {
	StartFrame int
	Columns    int
}

// ConversationFlow lays out exchanges as user, optional thinking, tool call and
// result pairs, then the assistant reply. Within an exchange every message stays
// listed for the states that follow it.
func ConversationFlow(title string, exchanges []Exchange, opts ConversationOptions) Sequence {
	states := []StateInterval{NewState(containerState, 0, defaultStartFrame)}
	var messages []MessageDefinition
	frame := orDefault(opts.StartFrame, defaultStartFrame)
	id := 0

	for i, ex := range exchanges {
		var names []string
		var pending []MessageDefinition
		add := func(suffix, typ, content string, frames int) {
			name := fmt.Sprintf("exchange_%d_%s", i, suffix)
			states = append(states, NewState(name, frame, frames))
			frame += frames
			names = append(names, name)
			pending = append(pending, MessageDefinition{
				ID:      fmt.Sprintf("msg_%d", id),
				Type:    typ,
				Content: Text(content),
				Column:  ColumnAuto,
			})
			id++
		}

		add("user", TypeUser, ex.User, userFrames)
		if ex.Thinking != "" {
			add("thinking", TypeAssistantCoT, ex.Thinking, thinkingFrames)
		}
		for j, tool := range ex.Tools {
			add(fmt.Sprintf("tool_%d_call", j), TypeToolUse, tool.Call, toolFrames)
			add(fmt.Sprintf("tool_%d_result", j), TypeToolResult, tool.Result, toolFrames)
		}
		add("assistant", TypeAssistant, ex.Assistant, assistantFrames)

		for k := range pending {
			pending[k].VisibleStates = append([]string(nil), names[k:]...)
		}
		messages = append(messages, pending...)
	}

	return Sequence{
		Title:        Text(title),
		MessageTypes: DefaultMessageTypes(),
		States:       states,
		Messages:     messages,
		Layout:       Layout{Columns: orDefault(opts.Columns, 2), AutoFill: true},
	}
}

// SummarizationOptions tunes SummarizationFlow. Zero fields take defaults.
// FadeOutFrame is raised to at least one frame past the container entrance
// and SummaryFrame to at least one frame past FadeOutFrame.
type SummarizationOptions struct {
	FadeOutFrame int
	SummaryFrame int
	Columns      int
}

// SummarizationFlow shows the original messages, ghosts them once the fadeOut
// state has ended and brings in a summary. The token counter drops from the
// originals' cost to the summary's and reads optimized while the summary shows.
func SummarizationFlow(title string, originals []Step, summary Step, opts SummarizationOptions) Sequence {
	fadeAt := orDefault(opts.FadeOutFrame, 200)
	summaryAt := orDefault(opts.SummaryFrame, 250)
	fadeAt = max(fadeAt, defaultStartFrame+1)
	summaryAt = max(summaryAt, fadeAt+1)

	states := []StateInterval{
		NewState(containerState, 0, defaultStartFrame),
		NewState("showOriginal", defaultStartFrame, fadeAt-defaultStartFrame),
		NewState("fadeOut", fadeAt, summaryAt-fadeAt),
		NewState("showSummary", summaryAt, summaryFrames),
	}

	messages := make([]MessageDefinition, 0, len(originals)+1)
	for _, o := range originals {
		messages = append(messages, MessageDefinition{
			ID:            o.ID,
			Type:          o.Type,
			Content:       Text(o.Content),
			Column:        ColumnAuto,
			VisibleStates: []string{"showOriginal"},
			FadeOutStates: []string{"fadeOut"},
		})
	}
	summaryID := summary.ID
	if summaryID == "" {
		summaryID = "summary"
	}
	summaryType := summary.Type
	if summaryType == "" {
		summaryType = TypeSummary
	}
	messages = append(messages, MessageDefinition{
		ID:            summaryID,
		Type:          summaryType,
		Content:       Text(summary.Content),
		Column:        ColumnAuto,
		VisibleStates: []string{"showSummary"},
	})

	originalCost := len(originals) * tokensPerOriginal
	return Sequence{
		Title:        Text(title),
		MessageTypes: DefaultMessageTypes(),
		States:       states,
		Messages:     messages,
		Layout:       Layout{Columns: orDefault(opts.Columns, 2), AutoFill: true},
		TokenCounter: &TokenCounterConfig{
			Enabled:       true,
			InitialTokens: originalCost,
			MaxTokens:     defaultMaxTokens,
			StateTokenCounts: map[string]int{
				"showOriginal": originalCost,
				"showSummary":  summaryTokens,
			},
			OptimizedStates: []string{"showSummary"},
		},
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
