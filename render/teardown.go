package render

import "log/slog"

type teardownStep struct {
	name    string
	release func()
}

// teardown collects release functions as resources are created and runs
// them newest first. A resource that was never created has no step, so a
// partially initialised renderer releases exactly what it holds.
type teardown struct {
	steps []teardownStep
}

func (t *teardown) push(name string, release func()) {
	t.steps = append(t.steps, teardownStep{name: name, release: release})
}

func (t *teardown) len() int {
	return len(t.steps)
}

// run releases everything pushed so far and forgets it, so a second call
// does nothing.
func (t *teardown) run(log *slog.Logger) {
	for i := len(t.steps) - 1; i >= 0; i-- {
		step := t.steps[i]
		log.Debug("destroying", "resource", step.name)
		step.release()
	}
	t.steps = nil
}
