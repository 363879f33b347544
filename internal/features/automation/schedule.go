package automation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-dashboard/internal/models"

	"github.com/robfig/cron/v3"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

// ValidateSchedule checks the recurrence rule and the time zone it runs in.
func ValidateSchedule(s models.Schedule) error {
	_, err := parseSchedule(s)
	return err
}

// NextRun is the first time the schedule fires strictly after from, never
// earlier than its first run.
func NextRun(s models.Schedule, from time.Time) (time.Time, error) {
	sched, err := parseSchedule(s)
	if err != nil {
		return time.Time{}, err
	}
	next := sched.Next(from)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q never fires", ErrInvalidSchedule, s.Cron)
	}
	return next, nil
}

func parseSchedule(s models.Schedule) (cron.Schedule, error) {
	spec := strings.TrimSpace(s.Cron)
	if spec == "" {
		return nil, fmt.Errorf("%w: cron expression is empty", ErrInvalidSchedule)
	}
	if strings.HasPrefix(spec, "TZ=") || strings.HasPrefix(spec, "CRON_TZ=") {
		return nil, fmt.Errorf("%w: time zone belongs in the timezone field", ErrInvalidSchedule)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidSchedule, s.Timezone)
		}
		spec = "CRON_TZ=" + s.Timezone + " " + spec
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if s.FirstRun.IsZero() {
		return sched, nil
	}
	return firstRunSchedule{inner: sched, first: s.FirstRun}, nil
}

// firstRunSchedule holds a schedule back until its first run.
type firstRunSchedule struct {
	inner cron.Schedule
	first time.Time
}

func (f firstRunSchedule) Next(t time.Time) time.Time {
	if t.Before(f.first) {
		t = f.first.Add(-time.Second)
	}
	return f.inner.Next(t)
}
