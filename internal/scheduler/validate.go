package scheduler

import (
	"github.com/go-playground/validator/v10"

	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// taskValidator is shared across SaveTask calls; validator.Validate caches
// its struct-tag reflection per type, so a single instance is both
// goroutine-safe and cheaper to reuse than constructing one per call.
var taskValidator = validator.New()

func validateTask(t Task) error {
	if err := taskValidator.Struct(t); err != nil {
		return xerrors.Wrap(xerrors.KindInput, "scheduler.validateTask", "task failed validation", err)
	}
	return nil
}
