package scheduler

import "testing"

func TestValidateTask_MissingRequiredFieldsFails(t *testing.T) {
	if err := validateTask(Task{}); err == nil {
		t.Error("expected validation error for a zero-value task")
	}
}

func TestValidateTask_UnknownTaskTypeFails(t *testing.T) {
	task := Task{TaskID: "t1", Name: "n", TaskType: "bogus", Cron: "0 0 * * *", Config: testTaskConfig()}
	if err := validateTask(task); err == nil {
		t.Error("expected validation error for an unrecognized task_type")
	}
}

func TestValidateTask_SampleRateOutOfRangeFails(t *testing.T) {
	cfg := testTaskConfig()
	cfg.SampleRate = 1.5
	task := Task{TaskID: "t1", Name: "n", TaskType: TaskSampleImage, Cron: "0 0 * * *", Config: cfg}
	if err := validateTask(task); err == nil {
		t.Error("expected validation error for sample_rate > 1")
	}
}

func TestValidateTask_WellFormedTaskPasses(t *testing.T) {
	task := Task{TaskID: "t1", Name: "n", TaskType: TaskBatchImage, Cron: "0 0 * * *", Config: testTaskConfig()}
	if err := validateTask(task); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}
