package schedule

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusFired     Status = "fired"
)

var ErrTaskNotFound = errors.New("scheduled task not found")

// Task is a one-shot deferred action: an alarm, a reminder, or the grace
// delay before a power action.
type Task struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	FireAt    time.Time `json:"fire_at"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type taskState struct {
	task   Task
	cancel chan struct{}
}

// Manager owns all scheduled tasks. Each pending task has its own waiter
// goroutine; tasks fire independently of each other and of the session loop,
// and they outlive session sleep.
type Manager struct {
	mu       sync.Mutex
	tasks    map[string]*taskState
	now      func() time.Time
	onResult func(Task, error)
}

func NewManager() *Manager {
	return &Manager{
		tasks: make(map[string]*taskState),
		now:   time.Now,
	}
}

// SetNowFunc replaces the clock used for FireAt validation. Test hook.
func (m *Manager) SetNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now != nil {
		m.now = now
	}
}

// SetResultHook registers a callback invoked after a task fires, with the
// final task snapshot and the action's error, if any.
func (m *Manager) SetResultHook(hook func(Task, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onResult = hook
}

// Schedule registers an action to fire at fireAt, which must be strictly in
// the future. The returned ID can cancel the task while it is still pending.
func (m *Manager) Schedule(label string, fireAt time.Time, action func() error) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !fireAt.After(now) {
		return "", fmt.Errorf("fire time %s is not in the future", fireAt.Format(time.RFC3339))
	}

	st := &taskState{
		task: Task{
			ID:        uuid.NewString(),
			Label:     label,
			FireAt:    fireAt,
			Status:    StatusPending,
			CreatedAt: now,
		},
		cancel: make(chan struct{}),
	}
	m.tasks[st.task.ID] = st
	go m.wait(st, fireAt.Sub(now), action)
	return st.task.ID, nil
}

// ScheduleAfter registers an action to fire after delay.
func (m *Manager) ScheduleAfter(label string, delay time.Duration, action func() error) (string, error) {
	if delay <= 0 {
		return "", fmt.Errorf("delay must be positive, got %s", delay)
	}
	m.mu.Lock()
	fireAt := m.now().Add(delay)
	m.mu.Unlock()
	return m.Schedule(label, fireAt, action)
}

// Cancel suppresses a pending task. It reports false once the task has fired
// or was already cancelled: cancellation after the fact is a no-op.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.tasks[id]
	if !ok || st.task.Status != StatusPending {
		return false
	}
	st.task.Status = StatusCancelled
	close(st.cancel)
	return true
}

func (m *Manager) Get(id string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return st.task, nil
}

// List returns a snapshot of all known tasks ordered by fire time. Tasks are
// removed once fired or cancelled, so the list is effectively the pending set.
func (m *Manager) List() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.tasks))
	for _, st := range m.tasks {
		out = append(out, st.task)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, st := range m.tasks {
		if st.task.Status == StatusPending {
			count++
		}
	}
	return count
}

func (m *Manager) wait(st *taskState, delay time.Duration, action func() error) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-st.cancel:
		m.remove(st.task.ID)
		return
	case <-timer.C:
	}

	m.mu.Lock()
	if st.task.Status != StatusPending {
		m.mu.Unlock()
		return
	}
	st.task.Status = StatusFired
	task := st.task
	hook := m.onResult
	m.mu.Unlock()

	err := runAction(action)
	if err != nil {
		log.Printf("scheduled task %s (%s) failed: %v", task.ID, task.Label, err)
	}
	if hook != nil {
		hook(task, err)
	}
	m.remove(task.ID)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
}

// runAction contains an action failure or panic so one broken task never
// takes down the scheduler or other pending tasks.
func runAction(action func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return action()
}
