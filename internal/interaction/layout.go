package interaction

// columnPlan holds message indices per display column. It is computed once
// from the declared messages and does not depend on the frame.
type columnPlan struct {
	left  []int
	right []int
	// dropped lists messages a manual two-column layout places nowhere.
	dropped []int
}

// DistributeColumns splits messages into left and right display columns.
// A message that is never visible still occupies its slot.
func DistributeColumns(layout Layout, messages []MessageDefinition) (left, right []MessageDefinition) {
	plan := planColumns(layout, messages)
	left = make([]MessageDefinition, 0, len(plan.left))
	for _, i := range plan.left {
		left = append(left, messages[i])
	}
	right = make([]MessageDefinition, 0, len(plan.right))
	for _, i := range plan.right {
		right = append(right, messages[i])
	}
	return left, right
}

func planColumns(layout Layout, messages []MessageDefinition) columnPlan {
	n := len(messages)
	var plan columnPlan

	if layout.Columns <= 1 {
		plan.left = seq(0, n)
		return plan
	}

	if !layout.AutoFill {
		for i, m := range messages {
			switch m.Column {
			case ColumnLeft:
				plan.left = append(plan.left, i)
			case ColumnRight:
				plan.right = append(plan.right, i)
			default:
				plan.dropped = append(plan.dropped, i)
			}
		}
		return plan
	}

	limit := layout.MaxMessagesPerColumn
	if limit <= 0 {
		limit = (n + 1) / 2
	}
	limit = min(limit, n)
	plan.left = seq(0, limit)
	plan.right = seq(limit, n)
	return plan
}

func seq(from, to int) []int {
	out := make([]int, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
