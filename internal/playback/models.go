// Package playback keeps compiled interaction sequences and serves their
// snapshots over HTTP.
package playback

import (
	"time"

	"interaction-timeline/internal/interaction"
)

// SequenceID identifies a registered sequence.
type SequenceID string

// Record is the stored form of a sequence: the script source as submitted.
type Record struct {
	ID        SequenceID
	Source    []byte
	CreatedAt time.Time
}

// Compiled pairs a record with the engine built from its source.
type Compiled struct {
	Record
	Engine *interaction.Engine
}

// Summary describes a registered sequence.
type Summary struct {
	ID             SequenceID                  `json:"id"`
	States         []interaction.StateInterval `json:"states"`
	DurationFrames int                         `json:"duration_frames"`
	Diagnostics    []interaction.Diagnostic    `json:"diagnostics"`
	CreatedAt      time.Time                   `json:"created_at"`
}

func summarize(c Compiled) Summary {
	diags := c.Engine.Diagnostics()
	if diags == nil {
		diags = []interaction.Diagnostic{}
	}
	return Summary{
		ID:             c.ID,
		States:         c.Engine.States(),
		DurationFrames: c.Engine.Duration(),
		Diagnostics:    diags,
		CreatedAt:      c.CreatedAt,
	}
}
