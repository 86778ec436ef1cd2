// Package scheduler evaluates cron-driven task definitions and dispatches
// them to a bounded worker pool, persisting definitions and an append-only
// execution history as JSON files.
package scheduler

import (
	"time"
)

// TaskType selects what an Execution does with its resolved inputs.
type TaskType string

const (
	TaskBatchImage  TaskType = "batch_image"
	TaskSampleImage TaskType = "sample_image"
	TaskVideo       TaskType = "video"
)

// TaskConfig is the task-type-agnostic part of a Task's behavior: where to
// find inputs and how to diagnose them.
type TaskConfig struct {
	InputPath  string  `json:"input_path" validate:"required"`
	Pattern    string  `json:"pattern"`
	Recursive  bool    `json:"recursive"`
	Profile    string  `json:"profile" validate:"required,oneof=strict normal loose"`
	Level      string  `json:"level" validate:"required,oneof=fast standard deep"`
	SampleRate float64 `json:"sample_rate,omitempty" validate:"gte=0,lte=1"` // sample_image only: fraction of matches to diagnose
}

// TaskOutput describes where and in what retention window an Execution's
// results are kept. Report rendering itself (JSON/HTML/Excel/PDF) is an
// external collaborator; this only names the directory and days to keep.
type TaskOutput struct {
	Directory string   `json:"directory"`
	Formats   []string `json:"formats,omitempty"`
	KeepDays  int      `json:"keep_days,omitempty" validate:"gte=0"`
}

// Task is a persistent cron-driven job definition.
type Task struct {
	TaskID      string     `json:"task_id" validate:"required"`
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description,omitempty"`
	TaskType    TaskType   `json:"task_type" validate:"required,oneof=batch_image sample_image video"`
	Cron        string     `json:"cron" validate:"required"`
	Enabled     bool       `json:"enabled"`
	Config      TaskConfig `json:"config" validate:"required"`
	Output      TaskOutput `json:"output"`
	NextRunAt   time.Time  `json:"next_run_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ExecutionStatus is an Execution's terminal or in-flight state.
type ExecutionStatus string

const (
	ExecutionRunning ExecutionStatus = "running"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionPartial ExecutionStatus = "partial"
	ExecutionFailed  ExecutionStatus = "failed"
)

// Execution is the terminal record for one task run, scheduled or manual.
// Append-only: once FinishedAt is set, an Execution is never rewritten.
type Execution struct {
	ExecutionID string          `json:"execution_id"`
	TaskID      string          `json:"task_id"`
	TaskName    string          `json:"task_name"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at,omitempty"`
	Processed   int             `json:"items_processed"`
	Normal      int             `json:"normal_count"`
	Abnormal    int             `json:"abnormal_count"`
	Errors      int             `json:"error_count"`
	ReportPath  string          `json:"report_path,omitempty"`
	ErrorMsg    string          `json:"error_message,omitempty"`
}
