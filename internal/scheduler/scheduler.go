package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/persistence"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/file"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/icron"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// Store is the schedule persistence surface.
type Store interface {
	ListSchedules(ctx context.Context, activeOnly bool) ([]persistence.Schedule, error)
	SetScheduleNextRun(ctx context.Context, id int64, nextRun time.Time) error
	TouchSchedule(ctx context.Context, id int64, lastRun, nextRun time.Time) error
}

// Submitter enqueues a generation job for a script.
type Submitter interface {
	Submit(ctx context.Context, script, title, description string, autoUpload bool) (videoID, jobID int64, err error)
}

// Scheduler turns recurring schedule rows into job submissions. A cron tick
// evaluates active schedules once a minute; singleflight keeps overlapping
// ticks from double-submitting.
type Scheduler struct {
	store     Store
	submitter Submitter
	cron      *cron.Cron
	group     singleflight.Group
	now       func() time.Time
}

func New(store Store, submitter Submitter) *Scheduler {
	return &Scheduler{
		store:     store,
		submitter: submitter,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start registers the evaluation tick and launches the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		_, _, _ = s.group.Do("tick", func() (any, error) {
			if err := s.Tick(ctx); err != nil {
				log.Error("Schedule evaluation failed: %v", err)
			}
			return nil, nil
		})
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Info("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Scheduler stopped")
}

// Tick evaluates every active schedule once. Exported for tests and for a
// forced evaluation after schedule changes.
func (s *Scheduler) Tick(ctx context.Context) error {
	schedules, err := s.store.ListSchedules(ctx, true)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	for _, schedule := range schedules {
		if err := s.evaluate(ctx, schedule, now); err != nil {
			log.Error("Schedule %d (%s) failed: %v", schedule.ID, schedule.Name, err)
		}
	}
	return nil
}

func (s *Scheduler) evaluate(ctx context.Context, schedule persistence.Schedule, now time.Time) error {
	expr, err := CronExpr(schedule)
	if err != nil {
		return err
	}
	info, err := icron.GetTriggerInfo(expr, now)
	if err != nil {
		return err
	}

	// First sighting: record the upcoming trigger, do not fire.
	if schedule.NextRun == nil {
		return s.store.SetScheduleNextRun(ctx, schedule.ID, info.Next)
	}
	if now.Before(*schedule.NextRun) {
		return nil
	}

	script, err := readScript(schedule.ScriptSource)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s - %s", schedule.Name, now.Format("2006-01-02"))
	if _, _, err := s.submitter.Submit(ctx, script, title, "", schedule.AutoUpload); err != nil {
		return err
	}

	log.Info("Schedule %d (%s) fired, next run %s", schedule.ID, schedule.Name, info.Next.Format(time.RFC3339))
	return s.store.TouchSchedule(ctx, schedule.ID, now, info.Next)
}

// CronExpr translates a schedule row into a six-field cron expression.
func CronExpr(schedule persistence.Schedule) (string, error) {
	hour, minute, err := parseTimeOfDay(schedule.TimeOfDay)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(schedule.Frequency) {
	case "daily":
		return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
	case "weekly":
		days := strings.TrimSpace(schedule.Days)
		if days == "" {
			days = "sun"
		}
		return fmt.Sprintf("0 %d %d * * %s", minute, hour, days), nil
	default:
		return "", fmt.Errorf("unknown schedule frequency %q", schedule.Frequency)
	}
}

func parseTimeOfDay(value string) (hour, minute int, err error) {
	if strings.TrimSpace(value) == "" {
		return 9, 0, nil
	}
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %q", value)
	}
	return hour, minute, nil
}

// readScript loads the schedule's script. A directory source resolves to the
// most recently modified .txt file under it.
func readScript(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("schedule has no script source")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("script source %s: %w", path, err)
	}
	if info.IsDir() {
		path, err = file.FindNewest(path, ".txt")
		if err != nil {
			return "", err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script source %s: %w", path, err)
	}
	return string(data), nil
}
