package round

import "fmt"

// Phase names a stage of a round.
type Phase string

const (
	PhaseMap     Phase = "map"
	PhaseReduce  Phase = "reduce"
	PhaseCollect Phase = "collect"
)

// TaskError reports the task that failed a round.
type TaskError struct {
	Phase Phase
	// Task is the split index for map tasks, the reducer number for
	// reduce tasks and -1 for the collect step.
	Task int
	Err  error
}

func (e *TaskError) Error() string {
	if e.Task < 0 {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s task %d: %v", e.Phase, e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
