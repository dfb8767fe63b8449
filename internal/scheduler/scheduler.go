// Package scheduler drives periodic fetch runs from each source's cron
// schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/reconly/reconly/core/logx"
	"github.com/reconly/reconly/internal/digest"
)

// Runner executes one fetch cycle for a source.
type Runner interface {
	RunSource(ctx context.Context, sourceID int64) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, sourceID int64) error

func (f RunnerFunc) RunSource(ctx context.Context, sourceID int64) error { return f(ctx, sourceID) }

// Scheduler maps enabled sources with a schedule onto cron entries. Reload
// rebuilds the mapping from the store, so source edits take effect without a
// restart.
type Scheduler struct {
	store  *digest.Store
	runner Runner
	cron   *cron.Cron
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

// New returns a stopped scheduler. Call Start after the first Reload.
func New(store *digest.Store, runner Runner) *Scheduler {
	return &Scheduler{
		store:   store,
		runner:  runner,
		cron:    cron.New(),
		log:     logx.Component("scheduler"),
		entries: make(map[int64]cron.EntryID),
	}
}

// Reload synchronizes cron entries with the current set of sources. Sources
// that are disabled or have no schedule lose their entry; invalid schedules
// are logged and skipped.
func (s *Scheduler) Reload(ctx context.Context) error {
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(sources))
	for _, src := range sources {
		seen[src.ID] = true
		if id, ok := s.entries[src.ID]; ok {
			s.cron.Remove(id)
			delete(s.entries, src.ID)
		}
		if !src.Enabled || src.Schedule == "" {
			continue
		}
		sourceID := src.ID
		entryID, err := s.cron.AddFunc(src.Schedule, func() {
			if err := s.runner.RunSource(context.Background(), sourceID); err != nil {
				s.log.Warn().Err(err).Int64("source", sourceID).Msg("scheduled run failed")
			}
		})
		if err != nil {
			s.log.Warn().Err(err).Int64("source", src.ID).Str("schedule", src.Schedule).Msg("invalid schedule")
			continue
		}
		s.entries[src.ID] = entryID
	}

	for id, entryID := range s.entries {
		if !seen[id] {
			s.cron.Remove(entryID)
			delete(s.entries, id)
		}
	}
	return nil
}

// Scheduled reports whether a source currently has a cron entry.
func (s *Scheduler) Scheduled(sourceID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[sourceID]
	return ok
}

// Start begins running scheduled entries.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the cron loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// ValidateSchedule reports whether expr is an acceptable cron expression.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return nil
	}
	_, err := cron.ParseStandard(expr)
	return err
}
