// Package monitor runs the background sweep that cuts off subscribers whose
// entitlement lapsed while they still hold a session.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohit83k/radius-bridge/internal/entitlement"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
)

// Store is what a sweep reads.
type Store interface {
	OnlineCustomers(ctx context.Context) ([]string, error)
	InUseVouchers(ctx context.Context) ([]string, error)
	GetCustomer(ctx context.Context, username string) (*model.Customer, error)
	GetVoucher(ctx context.Context, code string) (*model.Voucher, error)
}

// SessionMonitor periodically expires online customers and in-use vouchers.
type SessionMonitor struct {
	Store        Store
	Enforcer     *entitlement.Enforcer
	Logger       logger.Logger
	Interval     time.Duration
	ErrorBackoff time.Duration

	done chan struct{}
}

// New returns a monitor; call Run to start it.
func New(store Store, enforcer *entitlement.Enforcer, log logger.Logger, interval, errorBackoff time.Duration) *SessionMonitor {
	return &SessionMonitor{
		Store:        store,
		Enforcer:     enforcer,
		Logger:       log.WithFields(map[string]any{"component": "session-monitor"}),
		Interval:     interval,
		ErrorBackoff: errorBackoff,
		done:         make(chan struct{}),
	}
}

// Run sweeps every Interval until ctx is cancelled, waiting ErrorBackoff
// instead after a failed sweep. A sweep already under way is allowed to
// finish so its writes are not cut short.
func (m *SessionMonitor) Run(ctx context.Context) {
	defer close(m.done)

	timer := time.NewTimer(m.Interval)
	defer timer.Stop()

	m.Logger.Info("Session monitor started")
	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("Shutting down session monitor")
			return
		case <-timer.C:
		}

		wait := m.Interval
		expired, err := m.Sweep(context.WithoutCancel(ctx))
		if err != nil {
			m.Logger.Error(fmt.Errorf("session sweep failed: %w", err))
			wait = m.ErrorBackoff
		}
		if expired > 0 {
			m.Logger.WithFields(map[string]any{"expired": expired}).Info("Session sweep disconnected subscribers")
		}
		timer.Reset(wait)
	}
}

// Done is closed once Run has returned.
func (m *SessionMonitor) Done() <-chan struct{} {
	return m.done
}

// Sweep checks every online customer and in-use voucher once and returns how
// many were disconnected. Per-subscriber failures do not stop the sweep; they
// are joined into the returned error.
func (m *SessionMonitor) Sweep(ctx context.Context) (int, error) {
	usernames, err := m.Store.OnlineCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list online customers: %w", err)
	}
	codes, err := m.Store.InUseVouchers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list in-use vouchers: %w", err)
	}

	var (
		count int
		errs  []error
	)
	enforce := func(sub model.Subscriber) {
		expired, err := m.Enforcer.EnforceIfExpired(ctx, sub)
		if err != nil {
			errs = append(errs, err)
		}
		if expired {
			count++
		}
	}

	for _, username := range usernames {
		c, err := m.Store.GetCustomer(ctx, username)
		if errors.Is(err, redisclient.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		enforce(c)
	}

	for _, code := range codes {
		v, err := m.Store.GetVoucher(ctx, code)
		if errors.Is(err, redisclient.ErrNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		enforce(v)
	}

	return count, errors.Join(errs...)
}
