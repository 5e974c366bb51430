package playback

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// demoScript fades a question out once the answer has played and counts
// tokens per step.
const demoScript = `
title: Demo
default_types: true
states:
  - {name: container, start: 0, duration: 30}
  - {name: question, start: 30, duration: 30}
  - {name: answer, start: 60, duration: 60}
messages:
  - id: q
    type: user
    visible: [question]
    fade_out: [answer]
    content: what changed?
  - id: a
    type: assistant
    visible: [answer]
    content:
      template: "answered at frame {{.CurrentFrame}}"
layout: {columns: 1}
token_counter:
  initial: 100
  max: 1000
  states: {question: 150, answer: 400}
`

// danglingScript references a state that does not exist.
const danglingScript = `
default_types: true
states:
  - {name: only, start: 0, duration: 10}
messages:
  - {id: m, type: user, content: hi, visible: [missing]}
`
