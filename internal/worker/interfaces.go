package worker

import (
	"context"

	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/store"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Executor drives one workflow run forward. *workflow.Engine satisfies it.
type Executor interface {
	Execute(ctx context.Context, runID int64) error
	// DeadLetter records that the run's message exhausted its attempts.
	DeadLetter(ctx context.Context, runID int64) error
}

// MessageProcessor handles one message end to end, including its failure path.
type MessageProcessor func(ctx context.Context, msg queue.Message) error

// Mirrors service.StoreProvider - defined here to avoid import cycles.
type StoreProvider interface {
	WorkflowRuns() store.WorkflowRunStore
	WorkflowTimers() store.WorkflowTimerStore
}

// Mirrors service.TxRunner - defined here to avoid import cycles.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}
