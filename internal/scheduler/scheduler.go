package scheduler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// defaultMaxExecutions bounds an execution history when a task's Output
// names no keep_days and no caller-supplied max. The floor is 1000 entries
// per task.
const defaultMaxExecutions = 1000

// tickInterval is how often the scheduler re-evaluates due tasks. The spec
// only requires minute-precision cron support, so evaluating well under a
// minute keeps NextRunAt from drifting visibly late.
const tickInterval = 15 * time.Second

// taskState tracks one task's in-flight/queued execution so a second
// concurrent trigger (scheduled tick racing a manual call, or two manual
// calls) queues instead of running twice, and a third is rejected outright.
type taskState struct {
	running bool
	queued  bool
}

// taskRunner executes one Task's body and reports its tally. *Executor is
// the production implementation; tests substitute a fake to exercise
// scheduling/serialization without shelling out to ffmpeg.
type taskRunner interface {
	Run(ctx context.Context, task Task) (outcome, error)
}

// Scheduler evaluates cron-driven Tasks on a tick loop and dispatches due
// (or manually triggered) runs to a bounded worker pool, serializing
// concurrent attempts against the same task.
type Scheduler struct {
	store *Store
	exec  taskRunner

	sem chan struct{}

	mu     sync.Mutex
	states map[string]*taskState

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Scheduler backed by store and exec. workers bounds how many
// task executions may run concurrently; values below 2 are raised to
// runtime.NumCPU() (minimum 2), matching "max(2, cpu_count)".
func New(store *Store, exec *Executor, workers int) *Scheduler {
	return newScheduler(store, exec, workers)
}

func newScheduler(store *Store, exec taskRunner, workers int) *Scheduler {
	if workers < 2 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	return &Scheduler{
		store:  store,
		exec:   exec,
		sem:    make(chan struct{}, workers),
		states: make(map[string]*taskState),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the tick loop in a background goroutine until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.tick(ctx)
}

// Stop signals the tick loop to exit and waits for it to do so. In-flight
// executions are not cancelled; they run to completion.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) tick(ctx context.Context) {
	defer close(s.doneCh)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.evaluate(now)
		}
	}
}

// evaluate dispatches every enabled task whose next_run_at has arrived and
// advances its next_run_at from the cron expression, evaluated against now.
func (s *Scheduler) evaluate(now time.Time) {
	for _, task := range s.store.ListTasks() {
		if !task.Enabled || task.NextRunAt.After(now) {
			continue
		}
		next, err := NextRun(task.Cron, now)
		if err == nil {
			task.NextRunAt = next
			task.UpdatedAt = now
			s.store.SaveTask(task)
		}
		s.submit(task)
	}
}

// Trigger runs task ad hoc, outside its cron schedule, subject to the same
// per-task serialization as a scheduled tick. It returns the task's id; the
// Execution record, with its own execution id, is created when the run
// starts, and the run completes asynchronously.
func (s *Scheduler) Trigger(taskID string) (string, error) {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return "", err
	}
	if err := s.submit(task); err != nil {
		return "", err
	}
	return task.TaskID, nil
}

// submit starts task's execution immediately if the task is idle, queues
// one pending rerun if it is already running, or rejects with Conflict if
// one run is already in flight and one is already queued.
func (s *Scheduler) submit(task Task) error {
	s.mu.Lock()
	st, ok := s.states[task.TaskID]
	if !ok {
		st = &taskState{}
		s.states[task.TaskID] = st
	}
	switch {
	case !st.running:
		st.running = true
		s.mu.Unlock()
		go s.run(task, st)
		return nil
	case !st.queued:
		st.queued = true
		s.mu.Unlock()
		return nil
	default:
		s.mu.Unlock()
		return xerrors.Conflict("scheduler.Scheduler.submit", "task "+task.TaskID+" already has a run in flight and one queued")
	}
}

// run executes one Execution of task under the bounded worker pool, then
// checks for a queued rerun before marking the task idle again.
func (s *Scheduler) run(task Task, st *taskState) {
	s.sem <- struct{}{}
	s.execute(task)
	<-s.sem

	s.mu.Lock()
	if st.queued {
		st.queued = false
		s.mu.Unlock()
		// Re-fetch in case the definition changed while the prior run
		// (or its queued wait) was in flight.
		if fresh, err := s.store.GetTask(task.TaskID); err == nil {
			task = fresh
		}
		s.run(task, st)
		return
	}
	st.running = false
	s.mu.Unlock()
}

// execute runs task to completion and persists its Execution record,
// classifying the terminal status from the resulting tally.
func (s *Scheduler) execute(task Task) {
	execution := Execution{
		ExecutionID: uuid.NewString(),
		TaskID:      task.TaskID,
		TaskName:    task.Name,
		Status:      ExecutionRunning,
		StartedAt:   time.Now(),
	}

	ctx := context.Background()
	out, err := s.exec.Run(ctx, task)
	execution.FinishedAt = time.Now()
	execution.Processed = out.processed
	execution.Normal = out.normal
	execution.Abnormal = out.abnormal
	execution.Errors = out.errors

	switch {
	case err != nil:
		execution.Status = ExecutionFailed
		execution.ErrorMsg = err.Error()
	case out.processed == 0:
		execution.Status = ExecutionFailed
		execution.ErrorMsg = "no inputs matched input_path/pattern"
	case out.errors == 0:
		execution.Status = ExecutionSuccess
	case out.errors < out.processed:
		execution.Status = ExecutionPartial
	default:
		execution.Status = ExecutionFailed
	}

	maxEntries := defaultMaxExecutions
	s.store.SaveExecution(execution, maxEntries, task.Output.KeepDays)
}
