package model

import (
	"encoding/json"
	"time"
)

type RunState string

const (
	RunStateAssigned           RunState = "ASSIGNED"
	RunStateWaitingForDueDate  RunState = "WAITING_FOR_DUE_DATE"
	RunStateCheckingCompletion RunState = "CHECKING_COMPLETION"
	RunStateReminded           RunState = "REMINDED"
	RunStateSuppressed         RunState = "SUPPRESSED"
	RunStateDone               RunState = "DONE"
)

// WorkflowRun is one durable execution of a named workflow for a task.
type WorkflowRun struct {
	ID           int64      `json:"id"`
	Workflow     string     `json:"workflow"`
	TaskID       int64      `json:"task_id"`
	Origin       string     `json:"origin"`
	State        RunState   `json:"state"`
	Outcome      *string    `json:"outcome,omitempty"`
	ClaimedUntil *time.Time `json:"claimed_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	// DeadLetteredAt is set once the queue gave up on the run. Automatic
	// redelivery skips such runs.
	DeadLetteredAt *time.Time `json:"dead_lettered_at,omitempty"`
}

func (r WorkflowRun) IsDone() bool {
	return r.State == RunStateDone
}

// StepRecord is the completion marker of a named step within a run.
type StepRecord struct {
	RunID       int64           `json:"run_id"`
	StepName    string          `json:"step_name"`
	Result      json.RawMessage `json:"result"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Timer is a pending durable sleep. FiredAt is set once the dispatcher has
// enqueued the resume message.
type Timer struct {
	RunID    int64      `json:"run_id"`
	StepName string     `json:"step_name"`
	ResumeAt time.Time  `json:"resume_at"`
	FiredAt  *time.Time `json:"fired_at,omitempty"`
}
