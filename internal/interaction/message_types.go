package interaction

import "maps"

// Stock message type names.
const (
	TypeUser           = "user"
	TypeAssistant      = "assistant"
	TypeAssistantCoT   = "assistant_cot"
	TypeAssistantDiary = "assistant_diary"
	TypeToolUse        = "tool_use"
	TypeToolResult     = "tool_result"
	TypeSummary        = "summary"
	TypeSystem         = "system"
)

var defaultMessageTypes = map[string]MessageTypeConfig{
	TypeUser:           NewMessageType("#3498db", "👤", "User"),
	TypeAssistant:      NewMessageType("#2ecc71", "🤖", "Assistant"),
	TypeAssistantCoT:   MergeMessageType(NewMessageType("#9b59b6", "💭", "Thinking"), MessageTypeConfig{FontStyle: "italic"}),
	TypeAssistantDiary: NewMessageType("#34495e", "📔", "Diary"),
	TypeToolUse:        NewMessageType("#e67e22", "🔧", "Tool Call"),
	TypeToolResult:     NewMessageType("#16a085", "📊", "Tool Result"),
	TypeSummary:        MergeMessageType(NewMessageType("#f39c12", "📝", "Summary"), MessageTypeConfig{FontWeight: "bold"}),
	TypeSystem:         NewMessageType("#2c3e50", "⚙️", "System"),
}

// DefaultMessageTypes returns a fresh copy of the stock message type registry.
func DefaultMessageTypes() map[string]MessageTypeConfig {
	return maps.Clone(defaultMessageTypes)
}

// NewMessageType returns a message type with literal icon and label and the
// stock font size and padding.
func NewMessageType(background, icon, label string) MessageTypeConfig {
	return MessageTypeConfig{
		Background: background,
		Icon:       Text(icon),
		Label:      Text(label),
		FontSize:   "16px",
		Padding:    "12px 15px",
	}
}

// MergeMessageType returns base with every set field of extra applied.
func MergeMessageType(base, extra MessageTypeConfig) MessageTypeConfig {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.Background, extra.Background)
	set(&base.FontSize, extra.FontSize)
	set(&base.Padding, extra.Padding)
	set(&base.Border, extra.Border)
	set(&base.BoxShadow, extra.BoxShadow)
	set(&base.FontWeight, extra.FontWeight)
	set(&base.FontStyle, extra.FontStyle)
	if extra.Icon.IsSet() {
		base.Icon = extra.Icon
	}
	if extra.Label.IsSet() {
		base.Label = extra.Label
	}
	return base
}
