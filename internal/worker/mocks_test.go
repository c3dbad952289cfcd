package worker_test

import (
	"context"
	"sync"

	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/worker"
	"tasklane.app/server/internal/workflow/workflowtest"
)

type mockConsumer struct {
	mu        sync.Mutex
	readFn    func(ctx context.Context) ([]queue.Message, error)
	acked     []string
	requeued  []queue.Message
	dlq       []queue.Message
	lastError string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg)
	m.lastError = errMsg
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg)
	m.lastError = errMsg
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

type mockExecutor struct {
	mu           sync.Mutex
	executeFn    func(ctx context.Context, runID int64) error
	calls        []int64
	deadLettered []int64
}

func (m *mockExecutor) Execute(ctx context.Context, runID int64) error {
	m.mu.Lock()
	m.calls = append(m.calls, runID)
	m.mu.Unlock()
	if m.executeFn != nil {
		return m.executeFn(ctx, runID)
	}
	return nil
}

func (m *mockExecutor) DeadLetter(_ context.Context, runID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadLettered = append(m.deadLettered, runID)
	return nil
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// memoryTxRunner hands the same in-memory stores to every transaction.
type memoryTxRunner struct {
	stores *workflowtest.MemoryStores
}

func (r *memoryTxRunner) WithTx(_ context.Context, fn func(stores worker.StoreProvider) error) error {
	return fn(r.stores)
}
