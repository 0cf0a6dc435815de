package engine

import (
	"context"
	"fmt"
)

// Step is a deferred unit of work.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue holds deferred steps for a single-threaded event loop. Steps run in
// scheduling order; steps scheduled while draining run in the same Drain.
type Queue struct {
	steps []Step
}

// Schedule appends a step.
func (q *Queue) Schedule(name string, fn func(ctx context.Context) error) {
	q.steps = append(q.steps, Step{Name: name, Run: fn})
}

// Drain runs queued steps until none are left. It stops at the first failing
// step; steps after it stay queued. ctx is handed to every step.
func (q *Queue) Drain(ctx context.Context) error {
	for len(q.steps) > 0 {
		s := q.steps[0]
		q.steps[0] = Step{}
		q.steps = q.steps[1:]
		if err := s.Run(ctx); err != nil {
			return fmt.Errorf("engine: step %s: %w", s.Name, err)
		}
	}
	q.steps = nil
	return nil
}

// Len returns the number of queued steps.
func (q *Queue) Len() int { return len(q.steps) }

// Names lists queued step names in run order.
func (q *Queue) Names() []string {
	out := make([]string, len(q.steps))
	for i, s := range q.steps {
		out[i] = s.Name
	}
	return out
}
