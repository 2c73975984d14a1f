package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/profile"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const sweepBatch = 100

// HousekeepingService periodically removes partner signups that never
// verified their email within the grace window, together with their remote
// profiles. Signup also sweeps the one login id it is about to reuse; this
// worker catches the rest.
type HousekeepingService struct {
	Accounts *AccountService
	Profiles profile.PartnerClient
	Logger   *slog.Logger
	Interval time.Duration
	Grace    time.Duration
	// BatchSize is how many signups one list query returns, default 100.
	BatchSize int

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. Zero interval means
// 15 minutes and zero grace means DefaultSignupGrace.
func NewHousekeepingService(accounts *AccountService, profiles profile.PartnerClient, logger *slog.Logger, interval, grace time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if grace <= 0 {
		grace = DefaultSignupGrace
	}

	return &HousekeepingService{
		Accounts: accounts,
		Profiles: profiles,
		Logger:   logger,
		Interval: interval,
		Grace:    grace,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "grace", s.Grace)
}

// Stop shuts the worker down and waits for an in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if !s.started.Load() {
		return
	}
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.Sweep(ctx)
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// Sweep runs one pass and returns how many signups were removed. Failures
// are logged and end the pass early; the next tick retries.
func (s *HousekeepingService) Sweep(ctx context.Context) int {
	ctx = slogx.WithContext(ctx, s.Logger)
	cutoff := clock(s.Accounts.Now).Add(-s.Grace)
	accounts := s.Accounts.Store.Accounts()

	batch := s.BatchSize
	if batch <= 0 {
		batch = sweepBatch
	}

	// Every row handled below leaves the listing, removed or verified
	// meanwhile, so each query starts from the top.
	removed := 0
	for ctx.Err() == nil {
		rows, err := accounts.ListByRoleAndStatus(ctx, domain.RolePartner, domain.StatusWaitingEmailVerification, batch, 0)
		if err != nil {
			s.Logger.Error("failed to list unverified signups", "error", err)
			return removed
		}

		before := removed
		for _, a := range rows {
			// Oldest first: everything from here on is still inside the grace window
			if !a.CreatedAt.Before(cutoff) {
				s.logDone(removed)
				return removed
			}

			ok, err := accounts.DeleteIfCreatedBefore(ctx, a.ID, domain.StatusWaitingEmailVerification, cutoff)
			if err != nil {
				s.Logger.Error("failed to remove unverified signup", "account_id", a.ID.String(), "error", err)
				return removed
			}
			if !ok {
				continue
			}
			removed++

			if a.PartnerID != nil {
				if err := s.Profiles.Delete(ctx, *a.PartnerID); err != nil {
					s.Logger.Warn("failed to delete partner profile of unverified signup",
						"account_id", a.ID.String(),
						"partner_id", *a.PartnerID,
						"alert", "operational_alert",
						"error", err,
					)
				}
			}
		}

		// A full batch with nothing removed would be listed again unchanged
		if len(rows) < batch || removed == before {
			break
		}
	}

	s.logDone(removed)
	return removed
}

func (s *HousekeepingService) logDone(removed int) {
	if removed > 0 {
		s.Logger.Info("housekeeping sweep completed", "removed_signups", removed)
	}
}
