package script

import (
	"fmt"

	"interaction-timeline/internal/interaction"
)

// Sequence converts d into an engine sequence. Cross references between
// messages and states are left to interaction.New.
func (d *Document) Sequence() (interaction.Sequence, error) {
	var seq interaction.Sequence
	var err error

	if seq.Title, err = d.Title.compile("title"); err != nil {
		return interaction.Sequence{}, err
	}
	if d.Subtitle != nil {
		if seq.Subtitle, err = d.Subtitle.compile("subtitle"); err != nil {
			return interaction.Sequence{}, err
		}
	}

	if seq.MessageTypes, err = d.messageTypes(); err != nil {
		return interaction.Sequence{}, err
	}

	seq.States = make([]interaction.StateInterval, 0, len(d.States))
	for i, s := range d.States {
		st, err := s.interval()
		if err != nil {
			return interaction.Sequence{}, fmt.Errorf("%w: states[%d]: %w", ErrInvalidDocument, i, err)
		}
		seq.States = append(seq.States, st)
	}

	seq.Messages = make([]interaction.MessageDefinition, 0, len(d.Messages))
	for i, m := range d.Messages {
		field := fmt.Sprintf("messages[%d]", i)
		col, err := parseColumn(m.Column)
		if err != nil {
			return interaction.Sequence{}, fmt.Errorf("%w: %s: %w", ErrInvalidDocument, field, err)
		}
		content, err := m.Content.compile(field + ".content")
		if err != nil {
			return interaction.Sequence{}, err
		}
		seq.Messages = append(seq.Messages, interaction.MessageDefinition{
			ID:            m.ID,
			Type:          m.Type,
			Content:       content,
			Column:        col,
			VisibleStates: m.Visible,
			FadeOutStates: m.FadeOut,
			CustomOpacity: m.Opacity,
		})
	}

	seq.Overlays = make([]interaction.OverlayElement, 0, len(d.Overlays))
	for i, o := range d.Overlays {
		content, err := o.Content.compile(fmt.Sprintf("overlays[%d].content", i))
		if err != nil {
			return interaction.Sequence{}, err
		}
		seq.Overlays = append(seq.Overlays, interaction.OverlayElement{
			ID:            o.ID,
			Content:       content,
			Position:      interaction.Position{X: o.Position.X, Y: o.Position.Y},
			VisibleStates: o.Visible,
		})
	}

	seq.Layout = interaction.Layout{
		Columns:              d.Layout.Columns,
		AutoFill:             d.Layout.AutoFill,
		MaxMessagesPerColumn: d.Layout.MaxPerColumn,
	}

	if tc := d.TokenCounter; tc != nil {
		seq.TokenCounter = &interaction.TokenCounterConfig{
			Enabled:          tc.Enabled == nil || *tc.Enabled,
			InitialTokens:    tc.Initial,
			MaxTokens:        tc.Max,
			StateTokenCounts: tc.States,
			OptimizedStates:  tc.Optimized,
		}
	}
	return seq, nil
}

func (s State) interval() (interaction.StateInterval, error) {
	switch {
	case s.End != nil && s.Duration != nil:
		return interaction.StateInterval{}, fmt.Errorf("state %q sets both end and duration", s.Name)
	case s.End != nil:
		return interaction.StateInterval{Name: s.Name, StartFrame: s.Start, EndFrame: *s.End}, nil
	case s.Duration != nil:
		return interaction.NewState(s.Name, s.Start, *s.Duration), nil
	}
	return interaction.StateInterval{}, fmt.Errorf("state %q needs end or duration", s.Name)
}

func parseColumn(s string) (interaction.Column, error) {
	switch interaction.Column(s) {
	case "", interaction.ColumnAuto:
		return interaction.ColumnAuto, nil
	case interaction.ColumnLeft:
		return interaction.ColumnLeft, nil
	case interaction.ColumnRight:
		return interaction.ColumnRight, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

func (d *Document) messageTypes() (map[string]interaction.MessageTypeConfig, error) {
	out := make(map[string]interaction.MessageTypeConfig, len(d.MessageTypes))
	if d.DefaultTypes {
		out = interaction.DefaultMessageTypes()
	}
	for name, mt := range d.MessageTypes {
		cfg := interaction.MessageTypeConfig{
			Background: mt.Background,
			FontSize:   mt.FontSize,
			Padding:    mt.Padding,
			Border:     mt.Border,
			BoxShadow:  mt.BoxShadow,
			FontWeight: mt.FontWeight,
			FontStyle:  mt.FontStyle,
		}
		var err error
		if mt.Icon != nil {
			if cfg.Icon, err = mt.Icon.compile("message_types." + name + ".icon"); err != nil {
				return nil, err
			}
		}
		if mt.Label != nil {
			if cfg.Label, err = mt.Label.compile("message_types." + name + ".label"); err != nil {
				return nil, err
			}
		}
		if base, ok := out[name]; ok {
			cfg = interaction.MergeMessageType(base, cfg)
		}
		out[name] = cfg
	}
	return out, nil
}
