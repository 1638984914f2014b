// Package refresh runs scheduled discovery scans over all registered
// users and hands fresh results to a caller-supplied handler.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/flipscout/flipscout/internal/filter"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/pipeline"
	"github.com/flipscout/flipscout/internal/scheduler"
	"github.com/flipscout/flipscout/internal/users"
)

// ResultHandler receives one user's scan results. Called once per user per
// scan; errors are logged, not propagated.
type ResultHandler func(user model.User, deals []scheduler.AnalyzedListing, stats filter.Stats) error

// Service drives periodic scans on a cron schedule.
type Service struct {
	finder   *pipeline.Finder
	registry *users.Registry
	handler  ResultHandler
	timeout  time.Duration
	cron     *cron.Cron
	entryID  cron.EntryID
	log      *logrus.Entry
}

// NewService creates a refresh service. The handler may be nil, in which
// case scans only warm the query cache.
func NewService(finder *pipeline.Finder, registry *users.Registry, handler ResultHandler, timeout time.Duration, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Service{
		finder:   finder,
		registry: registry,
		handler:  handler,
		timeout:  timeout,
		log:      log.WithField("component", "refresh"),
	}
}

// Start schedules scans with the given cron expression ("@every 1h",
// "0 */4 * * *"). Returns an error for an unparsable expression.
func (s *Service) Start(spec string) error {
	if s.cron != nil {
		return fmt.Errorf("refresh service already started")
	}
	c := cron.New()
	id, err := c.AddFunc(spec, s.ScanAll)
	if err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}
	s.cron = c
	s.entryID = id
	c.Start()
	s.log.WithField("schedule", spec).Info("refresh schedule started")
	return nil
}

// Stop halts the schedule and waits for a running scan to finish.
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.log.Info("refresh schedule stopped")
}

// ScanAll runs one scan over every registered user. A failing user is
// logged and skipped; the scan continues with the rest.
func (s *Service) ScanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	scanned := 0
	for _, id := range s.registry.IDs() {
		user, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		if err := s.scanUser(ctx, user); err != nil {
			s.log.WithFields(logrus.Fields{"user": id, "error": err}).Error("scan failed")
			continue
		}
		scanned++
	}
	s.log.WithFields(logrus.Fields{
		"users":    scanned,
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("scan complete")
}

func (s *Service) scanUser(ctx context.Context, user model.User) error {
	analyzed, stats, err := s.finder.FindDealsForUser(ctx, user)
	if err != nil {
		return err
	}
	deals := pipeline.GoodDeals(analyzed, user)
	s.log.WithFields(logrus.Fields{
		"user":  user.ID,
		"kept":  stats.Kept,
		"deals": len(deals),
	}).Info("user scanned")

	if s.handler != nil {
		if err := s.handler(user, deals, stats); err != nil {
			s.log.WithFields(logrus.Fields{"user": user.ID, "error": err}).Warn("result handler failed")
		}
	}
	return nil
}
