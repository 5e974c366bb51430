package interaction

// TokenReadout is the token counter section of a snapshot.
type TokenReadout struct {
	Tokens      int  `json:"tokens"`
	MaxTokens   int  `json:"max_tokens"`
	IsOptimized bool `json:"is_optimized"`
}

type tokenStep struct {
	state  int
	tokens int
}

type tokenCounter struct {
	initial   int
	maxTokens int
	steps     []tokenStep
	optimized []int
}

func compileTokenCounter(cfg *TokenCounterConfig, t timeline) *tokenCounter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	tc := &tokenCounter{initial: cfg.InitialTokens, maxTokens: cfg.MaxTokens}
	for i, s := range t.states {
		if n, ok := cfg.StateTokenCounts[s.Name]; ok {
			tc.steps = append(tc.steps, tokenStep{state: i, tokens: n})
		}
	}
	for _, name := range cfg.OptimizedStates {
		tc.optimized = append(tc.optimized, t.indices(name)...)
	}
	return tc
}

// evaluate walks token-bearing states in declared order and keeps the last
// one that has started. Declared order wins over start order: a state
// declared later overrides an earlier-declared one even if it started first.
func (tc *tokenCounter) evaluate(t timeline, frame int) TokenReadout {
	tokens := tc.initial
	for _, step := range tc.steps {
		if t.states[step.state].startedBy(frame) {
			tokens = step.tokens
		}
	}
	return TokenReadout{
		Tokens:      tokens,
		MaxTokens:   tc.maxTokens,
		IsOptimized: t.anyActive(tc.optimized, frame),
	}
}
