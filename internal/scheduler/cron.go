package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// standardParser parses the 5-field dialect the spec names: minute, hour,
// day-of-month, month, day-of-week, with *, ",", "-", "/" and no seconds
// field, named months/days, or L/W/# extensions. cron.Standard on its own
// also accepts names and @-descriptors, so NextRun rejects any character
// other than digits, whitespace and * , - / before parsing.
var standardParser = cron.NewParser(cron.Standard)

// NextRun is a pure function of (expression, reference time): it parses
// expr and returns the first activation strictly after from. It makes no
// wall-clock calls itself, so callers control time for testing and the
// scheduler's tick loop supplies "now" explicitly.
func NextRun(expr string, from time.Time) (time.Time, error) {
	for _, r := range expr {
		if (r < '0' || r > '9') && r != '*' && r != ',' && r != '-' && r != '/' && r != ' ' && r != '\t' {
			return time.Time{}, xerrors.ConfigErr("scheduler.NextRun", "invalid cron expression: only digits and * , - / are allowed")
		}
	}
	schedule, err := standardParser.Parse(expr)
	if err != nil {
		return time.Time{}, xerrors.Wrap(xerrors.KindConfig, "scheduler.NextRun", "invalid cron expression", err)
	}
	return schedule.Next(from), nil
}
