// Package batch runs configured CI batches on cron schedules.
package batch

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/robfig/cron/v3"
)

// RunFunc executes one scheduled batch
type RunFunc func(ctx context.Context, cfg config.ScheduleConfig) error

// Scheduler decides when configured batches are due. Due batches run one at
// a time because they share a single working tree.
type Scheduler struct {
	configs map[string]config.ScheduleConfig
	parser  cron.Parser
	lastRun map[string]time.Time
	running map[string]bool
	mu      sync.RWMutex
	now     func() time.Time
}

// NewScheduler creates a scheduler for the given entries
func NewScheduler(configs []config.ScheduleConfig) (*Scheduler, error) {
	if err := ValidateAll(configs); err != nil {
		return nil, err
	}

	s := &Scheduler{
		configs: make(map[string]config.ScheduleConfig),
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		lastRun: make(map[string]time.Time),
		running: make(map[string]bool),
		now:     time.Now,
	}
	for _, cfg := range configs {
		s.configs[cfg.Name] = cfg
	}
	return s, nil
}

// ParseCron parses a five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// NextRun returns the next scheduled run time for a batch
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return time.Time{}
	}

	sched, err := s.parser.Parse(cfg.Cron)
	if err != nil {
		return time.Time{}
	}

	return sched.Next(s.now())
}

// ShouldRun returns true if a batch is due and not already running
func (s *Scheduler) ShouldRun(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return false
	}

	if s.running[name] {
		return false
	}

	sched, err := s.parser.Parse(cfg.Cron)
	if err != nil {
		return false
	}

	now := s.now()
	lastRun := s.lastRun[name]
	if lastRun.IsZero() {
		// first tick only fires for slots within the last minute
		lastRun = now.Add(-time.Minute)
	}

	return !now.Before(sched.Next(lastRun))
}

// MarkRunning marks a batch as currently running
func (s *Scheduler) MarkRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = true
}

// MarkComplete marks a batch as complete
func (s *Scheduler) MarkComplete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
	s.lastRun[name] = s.now()
}

// GetConfig returns the config for a batch
func (s *Scheduler) GetConfig(name string) (config.ScheduleConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[name]
	return cfg, ok
}

// ListBatches returns all batch names, sorted
func (s *Scheduler) ListBatches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tick runs every due batch in name order and returns how many ran
func (s *Scheduler) Tick(ctx context.Context, run RunFunc) int {
	ran := 0
	for _, name := range s.ListBatches() {
		if ctx.Err() != nil {
			return ran
		}
		if !s.ShouldRun(name) {
			continue
		}
		cfg, _ := s.GetConfig(name)
		s.MarkRunning(name)
		if err := run(ctx, cfg); err != nil {
			log.Printf("batch %s failed: %v", name, err)
		}
		s.MarkComplete(name)
		ran++
	}
	return ran
}

// Start ticks every minute until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context, run RunFunc) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx, run)
		}
	}
}
