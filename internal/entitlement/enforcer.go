// Package entitlement decides whether a subscriber may stay connected and
// carries out the disconnect when it may not. Accounting, CoA and the
// session monitor all go through the same Enforcer.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"layeh.com/radius/rfc2866"

	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
)

// Store is the part of the database the enforcer writes. Updates apply fn
// to the current stored document; see redisclient.RedisStore.UpdateCustomer.
type Store interface {
	UpdateCustomer(ctx context.Context, username string, fn func(*model.Customer) error) error
	UpdateVoucher(ctx context.Context, code string, fn func(*model.Voucher) error) error
}

// errRenewed aborts a disconnect whose stored document is no longer expired.
var errRenewed = errors.New("entitlement renewed")

// Enforcer expires subscribers and drops their sessions.
type Enforcer struct {
	Store    Store
	Registry *session.Registry
	Logger   logger.Logger
	Now      func() time.Time
}

// NewEnforcer returns an Enforcer using the wall clock.
func NewEnforcer(store Store, registry *session.Registry, log logger.Logger) *Enforcer {
	return &Enforcer{
		Store:    store,
		Registry: registry,
		Logger:   log,
		Now:      time.Now,
	}
}

// DisconnectAttributes orders the NAS to end the session immediately.
func DisconnectAttributes() reply.Attributes {
	return reply.Attributes{
		{Name: "Session-Timeout", Value: "0"},
		{Name: "Acct-Terminate-Cause", Value: rfc2866.AcctTerminateCause_Value_UserRequest.String()},
	}
}

// Expired reports whether sub's entitlement has lapsed.
func (e *Enforcer) Expired(sub model.Subscriber) bool {
	now := e.Now()
	switch s := sub.(type) {
	case *model.Customer:
		return s.Expired(now)
	case *model.Voucher:
		return s.Expired(now)
	default:
		return false
	}
}

// EnforceIfExpired disconnects sub when its entitlement has lapsed and
// reports whether it did. Expiry is checked again against the stored
// document, so a renewal written after sub was read cancels the disconnect.
func (e *Enforcer) EnforceIfExpired(ctx context.Context, sub model.Subscriber) (bool, error) {
	if !e.Expired(sub) {
		return false, nil
	}
	err := e.disconnect(ctx, sub, true)
	if errors.Is(err, errRenewed) {
		return false, nil
	}
	return true, err
}

// Disconnect drops the registry entry and persists the terminal state:
// vouchers become expired, customers go offline. Only those fields are
// written; sub is refreshed from the stored document.
func (e *Enforcer) Disconnect(ctx context.Context, sub model.Subscriber) error {
	return e.disconnect(ctx, sub, false)
}

func (e *Enforcer) disconnect(ctx context.Context, sub model.Subscriber, recheck bool) error {
	var err error
	switch s := sub.(type) {
	case *model.Customer:
		err = e.Store.UpdateCustomer(ctx, s.Username, func(c *model.Customer) error {
			*s = *c
			if recheck && !e.Expired(c) {
				return errRenewed
			}
			c.Online = false
			s.Online = false
			return nil
		})
	case *model.Voucher:
		err = e.Store.UpdateVoucher(ctx, s.Code, func(v *model.Voucher) error {
			*s = *v
			if recheck && !e.Expired(v) {
				return errRenewed
			}
			v.Expire()
			s.Status = v.Status
			return nil
		})
	}

	log := e.Logger.WithFields(map[string]any{
		"username": sub.Identifier(),
		"kind":     sub.Kind(),
	})
	if errors.Is(err, errRenewed) {
		log.Info("Entitlement renewed, disconnect skipped")
		return err
	}

	e.Registry.Remove(sub.Identifier())
	if err != nil {
		return fmt.Errorf("failed to persist disconnect of %s %q: %w", sub.Kind(), sub.Identifier(), err)
	}

	log.Info("Subscriber entitlement expired, session terminated")
	return nil
}
