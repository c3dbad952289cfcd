// Package workflowtest provides in-memory workflow persistence and a
// recording producer for tests of workflow handlers.
package workflowtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"tasklane.app/server/internal/model"
	"tasklane.app/server/internal/queue"
	"tasklane.app/server/internal/store"
)

type stepKey struct {
	runID int64
	name  string
}

// MemoryStores implements workflow.Stores.
type MemoryStores struct {
	mu     sync.Mutex
	runs   map[int64]*model.WorkflowRun
	steps  map[stepKey]model.StepRecord
	timers map[stepKey]model.Timer

	// RecordErr, when set for a step name, makes the next Record for it fail.
	RecordErr map[string]error
}

func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		runs:      make(map[int64]*model.WorkflowRun),
		steps:     make(map[stepKey]model.StepRecord),
		timers:    make(map[stepKey]model.Timer),
		RecordErr: make(map[string]error),
	}
}

func (m *MemoryStores) WorkflowRuns() store.WorkflowRunStore     { return (*memoryRuns)(m) }
func (m *MemoryStores) WorkflowSteps() store.WorkflowStepStore   { return (*memorySteps)(m) }
func (m *MemoryStores) WorkflowTimers() store.WorkflowTimerStore { return (*memoryTimers)(m) }

// Run returns a copy of the stored run, or nil.
func (m *MemoryStores) Run(id int64) *model.WorkflowRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil
	}
	cp := *run
	return &cp
}

// Runs returns copies of all runs.
func (m *MemoryStores) Runs() []model.WorkflowRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.WorkflowRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// HasStep reports whether a completion marker exists.
func (m *MemoryStores) HasStep(runID int64, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.steps[stepKey{runID, name}]
	return ok
}

// Timers returns copies of all timers.
func (m *MemoryStores) Timers() []model.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Timer, 0, len(m.timers))
	for _, t := range m.timers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResumeAt.Before(out[j].ResumeAt) })
	return out
}

// SetLease forces a lease on run id, as if another executor held it.
func (m *MemoryStores) SetLease(id int64, until time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		run.ClaimedUntil = &until
	}
}

type memoryRuns MemoryStores

func (r *memoryRuns) CreateIfAbsent(_ context.Context, run *model.WorkflowRun) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.runs {
		if existing.Workflow == run.Workflow && existing.TaskID == run.TaskID {
			*run = *existing
			return false, nil
		}
	}
	cp := *run
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.runs[run.ID] = &cp
	*run = cp
	return true, nil
}

func (r *memoryRuns) GetByID(_ context.Context, id int64) (*model.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *memoryRuns) Claim(_ context.Context, id int64, now, until time.Time) (*model.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok || run.IsDone() || (run.ClaimedUntil != nil && !run.ClaimedUntil.Before(now)) {
		return nil, store.ErrNotFound
	}
	run.ClaimedUntil = &until
	run.UpdatedAt = now
	cp := *run
	return &cp, nil
}

func (r *memoryRuns) Release(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.ClaimedUntil = nil
	}
	return nil
}

func (r *memoryRuns) UpdateState(_ context.Context, id int64, state model.RunState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.State = state
	}
	return nil
}

func (r *memoryRuns) Finish(_ context.Context, id int64, outcome string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		now := time.Now()
		run.State = model.RunStateDone
		run.Outcome = &outcome
		run.ClaimedUntil = nil
		run.FinishedAt = &now
	}
	return nil
}

func (r *memoryRuns) ListStalled(_ context.Context, state model.RunState, before time.Time, limit int32) ([]model.WorkflowRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WorkflowRun
	for _, run := range r.runs {
		if run.State == state && run.UpdatedAt.Before(before) && run.ClaimedUntil == nil && run.DeadLetteredAt == nil {
			out = append(out, *run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRuns) MarkDeadLettered(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok && !run.IsDone() {
		now := time.Now()
		run.DeadLetteredAt = &now
	}
	return nil
}

func (r *memoryRuns) Touch(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.UpdatedAt = time.Now()
	}
	return nil
}

type memorySteps MemoryStores

func (s *memorySteps) Get(_ context.Context, runID int64, stepName string) (*model.StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.steps[stepKey{runID, stepName}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (s *memorySteps) Record(_ context.Context, record *model.StepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.RecordErr[record.StepName]; ok {
		delete(s.RecordErr, record.StepName)
		return err
	}
	key := stepKey{record.RunID, record.StepName}
	if _, ok := s.steps[key]; ok {
		return nil
	}
	rec := *record
	rec.CompletedAt = time.Now()
	s.steps[key] = rec
	return nil
}

func (s *memorySteps) DeleteByRun(_ context.Context, runID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.steps {
		if k.runID == runID {
			delete(s.steps, k)
		}
	}
	return nil
}

type memoryTimers MemoryStores

func (t *memoryTimers) Schedule(_ context.Context, timer *model.Timer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := stepKey{timer.RunID, timer.StepName}
	if _, ok := t.timers[key]; ok {
		return nil
	}
	t.timers[key] = *timer
	return nil
}

func (t *memoryTimers) Get(_ context.Context, runID int64, stepName string) (*model.Timer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	timer, ok := t.timers[stepKey{runID, stepName}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &timer, nil
}

func (t *memoryTimers) ListDue(_ context.Context, now time.Time, limit int32) ([]model.Timer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.Timer
	for _, timer := range t.timers {
		if timer.FiredAt == nil && !timer.ResumeAt.After(now) {
			out = append(out, timer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResumeAt.Before(out[j].ResumeAt) })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memoryTimers) ListUnconsumed(_ context.Context, firedBefore, now time.Time, limit int32) ([]model.Timer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []model.Timer
	for key, timer := range t.timers {
		if timer.FiredAt == nil || !timer.FiredAt.Before(firedBefore) {
			continue
		}
		run, ok := t.runs[key.runID]
		if !ok || run.IsDone() || run.DeadLetteredAt != nil {
			continue
		}
		if run.ClaimedUntil != nil && !run.ClaimedUntil.Before(now) {
			continue
		}
		if _, recorded := t.steps[key]; recorded {
			continue
		}
		out = append(out, timer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.Before(*out[j].FiredAt) })
	if int32(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memoryTimers) MarkFired(_ context.Context, runID int64, stepName string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := stepKey{runID, stepName}
	if timer, ok := t.timers[key]; ok {
		timer.FiredAt = &at
		t.timers[key] = timer
	}
	return nil
}

func (t *memoryTimers) DeleteByRun(_ context.Context, runID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.timers {
		if k.runID == runID {
			delete(t.timers, k)
		}
	}
	return nil
}

// Producer records enqueued messages.
type Producer struct {
	mu       sync.Mutex
	Messages []queue.RunMessage
	Err      error
}

func (p *Producer) Enqueue(_ context.Context, msg queue.RunMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, msg)
	return nil
}

func (p *Producer) Close() error { return nil }

// Sent returns a copy of the recorded messages.
func (p *Producer) Sent() []queue.RunMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.RunMessage(nil), p.Messages...)
}
