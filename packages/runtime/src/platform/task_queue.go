package platform

import (
	"errors"
	"sync"
	"time"

	"au-go/packages/runtime/src/async"
)

// ErrTaskAborted rejects the result of a task canceled before it started
var ErrTaskAborted = errors.New("task aborted")

// TaskStatus is the execution status of a queued task
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskCanceled
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCanceled:
		return "canceled"
	}
	return "unknown"
}

// TaskOptions configures a queued task
type TaskOptions struct {
	// Delay postpones the task until the queue's clock has advanced by at least this much.
	Delay time.Duration
	// Reusable is accepted for queue API compatibility; tasks are never pooled.
	Reusable bool
}

// Task is a unit of work scheduled on a TaskQueue
type Task struct {
	queue    *TaskQueue
	callback func() async.Result
	status   TaskStatus
	due      time.Time
	result   *async.Promise
}

// Status returns the task status
func (t *Task) Status() TaskStatus {
	t.queue.mu.Lock()
	defer t.queue.mu.Unlock()
	return t.status
}

// Result settles when the task (and any pending work it returned) finishes
func (t *Task) Result() *async.Promise {
	return t.result
}

// Cancel removes a task that has not started yet. It reports whether the task was canceled.
func (t *Task) Cancel() bool {
	q := t.queue
	q.mu.Lock()
	if t.status != TaskPending {
		q.mu.Unlock()
		return false
	}
	t.status = TaskCanceled
	for i, queued := range q.tasks {
		if queued == t {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}
	q.mu.Unlock()
	t.result.Reject(ErrTaskAborted)
	return true
}

// TaskQueue is a FIFO of tasks drained by Flush
type TaskQueue struct {
	name   string
	mu     sync.Mutex
	tasks  []*Task
	now    func() time.Time
	notify func()
}

func newTaskQueue(name string, now func() time.Time, notify func()) *TaskQueue {
	return &TaskQueue{name: name, now: now, notify: notify}
}

// Name returns the queue name
func (q *TaskQueue) Name() string {
	return q.name
}

// QueueTask schedules callback
func (q *TaskQueue) QueueTask(callback func() async.Result, opts TaskOptions) *Task {
	t := &Task{
		queue:    q,
		callback: callback,
		result:   async.NewPromise(),
		due:      q.now().Add(opts.Delay),
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	if q.notify != nil {
		q.notify()
	}
	return t
}

// Len returns the number of tasks waiting to run
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Flush runs every task that is due, including tasks queued by the tasks it runs.
// It returns the number of tasks run.
func (q *TaskQueue) Flush() int {
	ran := 0
	for {
		t := q.nextDue()
		if t == nil {
			return ran
		}
		ran++
		q.run(t)
	}
}

func (q *TaskQueue) nextDue() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for i, t := range q.tasks {
		if !t.due.After(now) {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			t.status = TaskRunning
			return t
		}
	}
	return nil
}

func (q *TaskQueue) run(t *Task) {
	res := t.callback()
	if res.IsPending() {
		res.Promise().OnSettled(func(_ interface{}, err error) {
			q.complete(t, err)
		})
		return
	}
	q.complete(t, res.Err())
}

func (q *TaskQueue) complete(t *Task, err error) {
	q.mu.Lock()
	t.status = TaskCompleted
	q.mu.Unlock()
	if err != nil {
		t.result.Reject(err)
		return
	}
	t.result.Resolve(nil)
}
