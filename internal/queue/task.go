package queue

type TaskType string

const (
	// TaskTypeWorkflowRun drives a run forward: after Start, on retry, or when
	// the dispatcher re-kicks a stalled run.
	TaskTypeWorkflowRun TaskType = "workflow_run"
	// TaskTypeTimerFired resumes a run whose durable sleep has elapsed.
	TaskTypeTimerFired TaskType = "timer_fired"
)

// RunMessage is what producers put on the stream.
type RunMessage struct {
	TaskType TaskType
	RunID    int64
	TaskID   int64
	Step     string // set for TaskTypeTimerFired
	TraceID  string
	Attempt  int
}
