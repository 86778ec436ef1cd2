package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeRunner lets tests control how long an execution takes and count how
// many times it actually ran, without needing ffmpeg/ffprobe.
type fakeRunner struct {
	mu      sync.Mutex
	delay   time.Duration
	runs    int
	started chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, task Task) (outcome, error) {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return outcome{processed: 1, normal: 1}, nil
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func TestScheduler_TriggerRunsExecutorAndSavesExecution(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.SaveTask(Task{TaskID: "t1", Name: "nightly", TaskType: TaskBatchImage, Cron: "0 0 * * *", Enabled: true, Config: testTaskConfig()}); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	fr := &fakeRunner{}
	sched := newScheduler(s, fr, 2)

	if _, err := sched.Trigger("t1"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for fr.runCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fr.runCount() != 1 {
		t.Fatalf("runCount = %d; want 1", fr.runCount())
	}

	execs, err := s.ListExecutions("t1", 0)
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(execs) != 1 || execs[0].Status != ExecutionSuccess {
		t.Fatalf("execs = %+v; want one successful execution", execs)
	}
}

func TestScheduler_SecondConcurrentTriggerQueuesThirdRejects(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.SaveTask(Task{TaskID: "t1", Name: "slow", TaskType: TaskBatchImage, Cron: "0 0 * * *", Enabled: true, Config: testTaskConfig()}); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}
	fr := &fakeRunner{delay: 200 * time.Millisecond, started: make(chan struct{}, 4)}
	sched := newScheduler(s, fr, 2)

	if _, err := sched.Trigger("t1"); err != nil {
		t.Fatalf("first Trigger: %v", err)
	}
	<-fr.started // wait for the first run to actually start, so it is in flight

	if _, err := sched.Trigger("t1"); err != nil {
		t.Fatalf("second Trigger (should queue): %v", err)
	}
	if _, err := sched.Trigger("t1"); err == nil {
		t.Fatal("third concurrent Trigger should have been rejected")
	}

	// Let both the in-flight and queued runs finish.
	<-fr.started
	time.Sleep(300 * time.Millisecond)
	if fr.runCount() != 2 {
		t.Errorf("runCount = %d; want 2 (in-flight + queued, not the rejected third)", fr.runCount())
	}
}

func TestScheduler_EvaluateAdvancesNextRunAtAndSkipsDisabled(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	due := Task{TaskID: "due", Name: "due", TaskType: TaskBatchImage, Cron: "*/5 * * * *", Enabled: true, NextRunAt: now.Add(-time.Minute), Config: testTaskConfig()}
	disabled := Task{TaskID: "disabled", Name: "disabled", TaskType: TaskBatchImage, Cron: "* * * * *", Enabled: false, NextRunAt: now.Add(-time.Minute), Config: testTaskConfig()}
	notYet := Task{TaskID: "notyet", Name: "not yet", TaskType: TaskBatchImage, Cron: "* * * * *", Enabled: true, NextRunAt: now.Add(time.Hour), Config: testTaskConfig()}
	for _, task := range []Task{due, disabled, notYet} {
		if err := s.SaveTask(task); err != nil {
			t.Fatalf("SaveTask: %v", err)
		}
	}

	fr := &fakeRunner{}
	sched := newScheduler(s, fr, 2)
	sched.evaluate(now)

	deadline := time.Now().Add(time.Second)
	for fr.runCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fr.runCount() != 1 {
		t.Fatalf("runCount = %d; want 1 (only the due, enabled task runs)", fr.runCount())
	}

	updated, err := s.GetTask("due")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !updated.NextRunAt.After(now) {
		t.Errorf("NextRunAt = %v; want an activation strictly after %v", updated.NextRunAt, now)
	}
}

func TestScheduler_TriggerUnknownTaskFails(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	sched := newScheduler(s, &fakeRunner{}, 2)
	if _, err := sched.Trigger("missing"); err == nil {
		t.Error("expected an error for an unknown task_id")
	}
}
