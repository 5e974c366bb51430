// Package script reads interaction sequences authored as YAML or JSON
// documents.
//
// A content field is either a scalar, used verbatim, or a mapping:
//
//	subtitle:
//	  text: How assistants switch modes
//	  when:
//	    - active: [coderMode]
//	      text: CODER MODE
//	    - optimized: true
//	      template: "{{.TokenCount}} tokens (cached)"
//
// Rules are tried in order and the first match wins; otherwise the default
// text or template applies. Templates are text/template programs executed
// against interaction.DerivedState.
package script

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is wrapped by every parse and conversion error.
var ErrInvalidDocument = errors.New("invalid script document")

// Document is the on-disk form of an interaction sequence.
type Document struct {
	Title        Content                `yaml:"title"`
	Subtitle     *Content               `yaml:"subtitle,omitempty"`
	DefaultTypes bool                   `yaml:"default_types"`
	MessageTypes map[string]MessageType `yaml:"message_types,omitempty"`
	States       []State                `yaml:"states"`
	Messages     []Message              `yaml:"messages,omitempty"`
	Overlays     []Overlay              `yaml:"overlays,omitempty"`
	Layout       Layout                 `yaml:"layout"`
	TokenCounter *TokenCounter          `yaml:"token_counter,omitempty"`
}

// State is a timeline interval. Exactly one of End and Duration is set.
type State struct {
	Name     string `yaml:"name"`
	Start    int    `yaml:"start"`
	End      *int   `yaml:"end,omitempty"`
	Duration *int   `yaml:"duration,omitempty"`
}

// MessageType declares or overrides a message type.
type MessageType struct {
	Background string   `yaml:"background,omitempty"`
	Icon       *Content `yaml:"icon,omitempty"`
	Label      *Content `yaml:"label,omitempty"`
	FontSize   string   `yaml:"font_size,omitempty"`
	Padding    string   `yaml:"padding,omitempty"`
	Border     string   `yaml:"border,omitempty"`
	BoxShadow  string   `yaml:"box_shadow,omitempty"`
	FontWeight string   `yaml:"font_weight,omitempty"`
	FontStyle  string   `yaml:"font_style,omitempty"`
}

// Message is one authored message.
type Message struct {
	ID      string   `yaml:"id"`
	Type    string   `yaml:"type"`
	Content Content  `yaml:"content"`
	Column  string   `yaml:"column,omitempty"`
	Visible []string `yaml:"visible"`
	FadeOut []string `yaml:"fade_out,omitempty"`
	Opacity *float64 `yaml:"opacity,omitempty"`
}

// Overlay is one free-floating element.
type Overlay struct {
	ID       string   `yaml:"id"`
	Content  Content  `yaml:"content"`
	Position Position `yaml:"position"`
	Visible  []string `yaml:"visible"`
}

// Position is an overlay location.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Layout mirrors interaction.Layout.
type Layout struct {
	Columns      int  `yaml:"columns"`
	AutoFill     bool `yaml:"auto_fill"`
	MaxPerColumn int  `yaml:"max_per_column,omitempty"`
}

// TokenCounter configures the token readout. A present section is enabled
// unless Enabled is explicitly false.
type TokenCounter struct {
	Enabled   *bool          `yaml:"enabled,omitempty"`
	Initial   int            `yaml:"initial"`
	Max       int            `yaml:"max"`
	States    map[string]int `yaml:"states,omitempty"`
	Optimized []string       `yaml:"optimized,omitempty"`
}

// Content is a literal or rule-driven text field.
type Content struct {
	Text     string `yaml:"text,omitempty"`
	Template string `yaml:"template,omitempty"`
	When     []Rule `yaml:"when,omitempty"`
}

// Rule selects a text when all of its conditions hold. Empty conditions are
// ignored; Active and FadedOut match when any listed state qualifies.
type Rule struct {
	Active    []string `yaml:"active,omitempty"`
	FadedOut  []string `yaml:"faded_out,omitempty"`
	Optimized *bool    `yaml:"optimized,omitempty"`
	Text      string   `yaml:"text,omitempty"`
	Template  string   `yaml:"template,omitempty"`
}

// UnmarshalYAML accepts a bare scalar as literal text.
func (c *Content) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*c = Content{}
		return node.Decode(&c.Text)
	}
	if err := checkFields(node, contentFields); err != nil {
		return err
	}
	if when := mappingValue(node, "when"); when != nil && when.Kind == yaml.SequenceNode {
		for _, rule := range when.Content {
			if err := checkFields(rule, ruleFields); err != nil {
				return err
			}
		}
	}
	type plain Content
	return node.Decode((*plain)(c))
}

var (
	contentFields = []string{"text", "template", "when"}
	ruleFields    = []string{"active", "faded_out", "optimized", "text", "template"}
)

// checkFields rejects mapping keys outside allowed. Node.Decode does not
// inherit the decoder's KnownFields setting, so nested content checks here.
func checkFields(node *yaml.Node, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("%w: line %d: field %s not allowed here (want one of %s)",
				ErrInvalidDocument, key.Line, key.Value, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// MarshalYAML writes literal content back as a scalar.
func (c Content) MarshalYAML() (any, error) {
	if c.Template == "" && len(c.When) == 0 {
		return c.Text, nil
	}
	type plain Content
	return plain(c), nil
}

func (c Content) isLiteral() bool {
	return c.Template == "" && len(c.When) == 0
}
