package scheduler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// Store persists Tasks and Executions under root as described by the
// external interface: {root}/tasks/{task_id}.json and
// {root}/executions/{task_id}/{execution_id}.json. Writes are atomic via
// write-then-rename so a crash mid-write never leaves a torn file.
type Store struct {
	root string

	mu    sync.RWMutex // guards concurrent writers; reads take a snapshot
	tasks map[string]Task
}

// NewStore opens (and creates, if absent) the tasks/executions directory
// tree rooted at root, loading any tasks already on disk.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "tasks"), 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "scheduler.NewStore", "failed to create tasks directory", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "executions"), 0o755); err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "scheduler.NewStore", "failed to create executions directory", err)
	}

	s := &Store{root: root, tasks: make(map[string]Task)}
	entries, err := os.ReadDir(filepath.Join(root, "tasks"))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindConfig, "scheduler.NewStore", "failed to list tasks directory", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(root, "tasks", e.Name()))
		if err != nil {
			continue
		}
		var t Task
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		s.tasks[t.TaskID] = t
	}
	return s, nil
}

func (s *Store) taskPath(taskID string) string {
	return filepath.Join(s.root, "tasks", taskID+".json")
}

func (s *Store) executionDir(taskID string) string {
	return filepath.Join(s.root, "executions", taskID)
}

func (s *Store) executionPath(taskID, executionID string) string {
	return filepath.Join(s.executionDir(taskID), executionID+".json")
}

// writeJSONAtomic serializes v and writes it to path via a temp file in the
// same directory followed by an atomic rename, so readers never observe a
// partial write.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// SaveTask creates or updates a task definition. The task is validated
// against its struct tags before anything touches disk.
func (s *Store) SaveTask(t Task) error {
	if err := validateTask(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSONAtomic(s.taskPath(t.TaskID), t); err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "scheduler.SaveTask", "failed to persist task", err)
	}
	s.tasks[t.TaskID] = t
	return nil
}

// GetTask returns a task by id.
func (s *Store) GetTask(taskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return Task{}, xerrors.NotFound("scheduler.GetTask", "unknown task_id "+taskID)
	}
	return t, nil
}

// ListTasks returns every known task, ordered by task_id for deterministic
// iteration.
func (s *Store) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// DeleteTask removes a task's definition. Execution history under
// {root}/executions/{task_id}/ is preserved, per the spec's "task removal
// deletes the definition but preserves history."
func (s *Store) DeleteTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return xerrors.NotFound("scheduler.DeleteTask", "unknown task_id "+taskID)
	}
	if err := os.Remove(s.taskPath(taskID)); err != nil && !os.IsNotExist(err) {
		return xerrors.Wrap(xerrors.KindInternal, "scheduler.DeleteTask", "failed to remove task file", err)
	}
	delete(s.tasks, taskID)
	return nil
}

// SaveExecution appends (or updates, while still running) one execution
// record, then applies retention to the task's history: when keepDays is
// set, executions started more than keepDays before the newest one are
// dropped and maxEntries is not applied; otherwise the history is trimmed
// to the maxEntries most recent.
func (s *Store) SaveExecution(e Execution, maxEntries, keepDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.executionDir(e.TaskID), 0o755); err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "scheduler.SaveExecution", "failed to create execution directory", err)
	}
	if err := writeJSONAtomic(s.executionPath(e.TaskID, e.ExecutionID), e); err != nil {
		return xerrors.Wrap(xerrors.KindInternal, "scheduler.SaveExecution", "failed to persist execution", err)
	}
	return s.applyRetention(e.TaskID, maxEntries, keepDays)
}

// ListExecutions returns up to limit executions for taskID (or across all
// tasks if taskID is empty), most recent first. limit<=0 means unbounded.
func (s *Store) ListExecutions(taskID string, limit int) ([]Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var taskIDs []string
	if taskID != "" {
		taskIDs = []string{taskID}
	} else {
		entries, err := os.ReadDir(filepath.Join(s.root, "executions"))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.KindInternal, "scheduler.ListExecutions", "failed to list executions directory", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				taskIDs = append(taskIDs, e.Name())
			}
		}
	}

	var all []Execution
	for _, id := range taskIDs {
		execs, err := s.readExecutions(id)
		if err != nil {
			continue
		}
		all = append(all, execs...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) readExecutions(taskID string) ([]Execution, error) {
	entries, err := os.ReadDir(s.executionDir(taskID))
	if err != nil {
		return nil, err
	}
	out := make([]Execution, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.executionDir(taskID), e.Name()))
		if err != nil {
			continue
		}
		var exec Execution
		if err := json.Unmarshal(raw, &exec); err != nil {
			continue
		}
		out = append(out, exec)
	}
	return out, nil
}

// applyRetention drops executions older than keepDays (if set) or beyond
// maxEntries, whichever the task's configuration names. Caller holds s.mu.
func (s *Store) applyRetention(taskID string, maxEntries, keepDays int) error {
	execs, err := s.readExecutions(taskID)
	if err != nil {
		return nil
	}
	sort.Slice(execs, func(i, j int) bool { return execs[i].StartedAt.After(execs[j].StartedAt) })

	var toDelete []Execution
	if keepDays > 0 {
		cutoff := execs[0].StartedAt.AddDate(0, 0, -keepDays)
		for _, e := range execs {
			if e.StartedAt.Before(cutoff) {
				toDelete = append(toDelete, e)
			}
		}
	} else if maxEntries > 0 && len(execs) > maxEntries {
		toDelete = execs[maxEntries:]
	}

	for _, e := range toDelete {
		os.Remove(s.executionPath(taskID, e.ExecutionID))
	}
	return nil
}
