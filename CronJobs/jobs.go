package CronJobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Dashspect/Models"
	"Dashspect/Notifications"
	"Dashspect/TaskEngine"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DigestSender publishes the daily task digest somewhere
type DigestSender interface {
	Name() string
	SendDigest(ctx context.Context, result TaskEngine.Result, day time.Time) error
}

// Scheduler runs the overdue sweep and the daily digest on cron schedules.
// Schedules use the six field form with seconds, e.g. "0 */5 * * * *".
type Scheduler struct {
	cronScheduler *cron.Cron
	db            *gorm.DB
	pipeline      *TaskEngine.Pipeline
	loc           *time.Location
	dispatcher    *Notifications.Dispatcher
	digests       []DigestSender
	now           func() time.Time

	mu       sync.Mutex
	sweepID  cron.EntryID
	digestID cron.EntryID
}

func NewScheduler(db *gorm.DB, pipeline *TaskEngine.Pipeline, loc *time.Location, dispatcher *Notifications.Dispatcher, digests ...DigestSender) *Scheduler {
	return &Scheduler{
		cronScheduler: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		db:            db,
		pipeline:      pipeline,
		loc:           loc,
		dispatcher:    dispatcher,
		digests:       digests,
		now:           time.Now,
	}
}

// Start registers both jobs and starts the cron loop. An empty schedule
// disables that job.
func (s *Scheduler) Start(sweepSchedule, digestSchedule string) error {
	if sweepSchedule != "" {
		if err := s.UpdateSweepSchedule(sweepSchedule); err != nil {
			return err
		}
	}
	if digestSchedule != "" {
		if err := s.UpdateDigestSchedule(digestSchedule); err != nil {
			return err
		}
	}

	s.cronScheduler.Start()
	log.Printf("Task scheduler started (sweep %q, digest %q)", sweepSchedule, digestSchedule)
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	if s.cronScheduler != nil {
		<-s.cronScheduler.Stop().Done()
		log.Println("Task scheduler stopped")
	}
}

func (s *Scheduler) UpdateSweepSchedule(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cronScheduler.AddFunc(schedule, func() {
		if _, err := s.RunOverdueSweep(context.Background()); err != nil {
			log.Printf("Error in overdue sweep: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling overdue sweep: %w", err)
	}
	if s.sweepID != 0 {
		s.cronScheduler.Remove(s.sweepID)
	}
	s.sweepID = id
	log.Printf("Overdue sweep schedule updated to: %s\n", schedule)
	return nil
}

func (s *Scheduler) UpdateDigestSchedule(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cronScheduler.AddFunc(schedule, func() {
		if err := s.RunDigest(context.Background()); err != nil {
			log.Printf("Error in daily digest: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling daily digest: %w", err)
	}
	if s.digestID != 0 {
		s.cronScheduler.Remove(s.digestID)
	}
	s.digestID = id
	log.Printf("Digest schedule updated to: %s\n", schedule)
	return nil
}

func (s *Scheduler) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	return now, time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// RunOverdueSweep alerts on everything overdue since yesterday
func (s *Scheduler) RunOverdueSweep(ctx context.Context) (Notifications.Report, error) {
	if s.dispatcher == nil {
		return Notifications.Report{}, nil
	}
	now, today := s.today()
	rng, err := TaskEngine.NewDateRange(today.AddDate(0, 0, -1), today)
	if err != nil {
		return Notifications.Report{}, err
	}

	result, err := Models.Visible(s.db, s.pipeline, rng, now, TaskEngine.Identity{IsAdmin: true}, TaskEngine.GroupByEmployee)
	if err != nil {
		return Notifications.Report{}, fmt.Errorf("failed to list occurrences: %w", err)
	}

	report, err := s.dispatcher.NotifyOverdue(ctx, result, now)
	if err != nil {
		return report, err
	}
	if report.Sent > 0 || report.Failed > 0 {
		log.Printf("Overdue sweep: %d sent, %d skipped, %d failed", report.Sent, report.Skipped, report.Failed)
	}
	return report, nil
}

// RunDigest sends today's board, grouped by location, to every digest sender
func (s *Scheduler) RunDigest(ctx context.Context) error {
	now, today := s.today()
	result, err := Models.Visible(s.db, s.pipeline, TaskEngine.SingleDay(today), now, TaskEngine.Identity{IsAdmin: true}, TaskEngine.GroupByLocation)
	if err != nil {
		return fmt.Errorf("failed to list occurrences: %w", err)
	}

	var failed int
	for _, sender := range s.digests {
		if err := sender.SendDigest(ctx, result, today); err != nil {
			log.Printf("Error sending %s digest: %v", sender.Name(), err)
			failed++
			continue
		}
		log.Printf("Sent %s digest for %s", sender.Name(), today.Format("2006-01-02"))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d digests failed", failed, len(s.digests))
	}
	return nil
}

const (
	JobOverdueSweep = "overdue-sweep"
	JobDigest       = "digest"
)

// RunNow runs a job by name outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, job string) (interface{}, error) {
	switch job {
	case JobOverdueSweep:
		return s.RunOverdueSweep(ctx)
	case JobDigest:
		return nil, s.RunDigest(ctx)
	default:
		return nil, fmt.Errorf("unknown job %q", job)
	}
}
