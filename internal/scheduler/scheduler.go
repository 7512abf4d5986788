package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"grindvault/internal/backup"
	"grindvault/internal/config"
)

// Trigger is one fixed time of day at which a backup cycle fires.
type Trigger struct {
	Hour   int
	Minute int
	Reason string
}

// Scheduler invokes the backup service at fixed local times of day.
//
// Cycles are not serialized against each other: if two triggers fire close
// together, or a manual trigger overlaps a scheduled one, both cycles run.
// Deployments that need mutual exclusion must provide it at the trigger
// layer.
type Scheduler struct {
	logger   *zap.Logger
	service  *backup.Service
	triggers []Trigger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New creates a scheduler from the configured schedule entries.
func New(logger *zap.Logger, service *backup.Service, entries []config.ScheduleEntry) (*Scheduler, error) {
	triggers := make([]Trigger, 0, len(entries))
	for _, entry := range entries {
		t, err := time.Parse("15:04", entry.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule time %q: %w", entry.Time, err)
		}
		triggers = append(triggers, Trigger{
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Reason: entry.Reason,
		})
	}

	sort.Slice(triggers, func(i, j int) bool {
		if triggers[i].Hour != triggers[j].Hour {
			return triggers[i].Hour < triggers[j].Hour
		}
		return triggers[i].Minute < triggers[j].Minute
	})

	return &Scheduler{
		logger:   logger,
		service:  service,
		triggers: triggers,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the trigger loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(s.triggers) == 0 {
		return fmt.Errorf("no schedule entries configured")
	}
	s.running = true

	s.logger.Info("Backup scheduler started", zap.Int("triggers", len(s.triggers)))

	go s.run(ctx)
	return nil
}

// Stop stops the trigger loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done

	s.logger.Info("Backup scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		next, fireAt := s.Next(time.Now())
		wait := time.Until(fireAt)

		s.logger.Info("Next backup scheduled",
			zap.String("reason", next.Reason),
			zap.Time("at", fireAt),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
			s.service.RunCycle(ctx, next.Reason)
		}
	}
}

// Next returns the trigger that fires soonest after now and its fire time.
func (s *Scheduler) Next(now time.Time) (Trigger, time.Time) {
	var best Trigger
	var bestAt time.Time

	for _, trigger := range s.triggers {
		at := time.Date(now.Year(), now.Month(), now.Day(),
			trigger.Hour, trigger.Minute, 0, 0, now.Location())
		if !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		if bestAt.IsZero() || at.Before(bestAt) {
			best = trigger
			bestAt = at
		}
	}

	return best, bestAt
}
