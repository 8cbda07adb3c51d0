package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/partforge/quotewire/internal/alert"
	"github.com/partforge/quotewire/internal/sla"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule validates a 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("monitor: parse schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Run sweeps on the given cron schedule until ctx is cancelled. Sweep
// failures are reported to out and the loop keeps going; only a bad
// schedule expression aborts.
func Run(ctx context.Context, db *gorm.DB, notifier alert.Notifier, schedule string, th sla.Thresholds, out io.Writer) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}

	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		res, err := Sweep(db, notifier, time.Now(), th)
		if err != nil {
			fmt.Fprintf(out, "sweep failed: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "sweep: %d evaluated, %d need action, %d new alerts, %d notified, %d resolved\n",
			res.Evaluated, res.NeedsAction, res.NewAlerts, res.Notified, res.Resolved)
	}
}
