// Package bridge implements the FreeRADIUS rlm_rest phases (authorize,
// authenticate, accounting, CoA) against the subscriber database. It knows
// nothing about HTTP; the server package maps its results onto responses.
package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/mohit83k/radius-bridge/internal/entitlement"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
	"github.com/mohit83k/radius-bridge/internal/subscriber"
)

// Store is the subset of the database the bridge reads and writes.
type Store interface {
	subscriber.Source
	entitlement.Store
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	GetAccounting(ctx context.Context, username string) (*model.AccountingRecord, error)
	SaveAccounting(ctx context.Context, record model.AccountingRecord) error
}

// Reject messages returned to the NAS as Reply-Message.
const (
	MsgLoginInvalid       = "Login invalid"
	MsgLoginDisabled      = "Login disabled"
	MsgAccessExpired      = "Access time expired"
	MsgWrongPassword      = "Wrong Password"
	MsgInvalidVoucher     = "Invalid voucher"
	MsgVoucherExpired     = "Voucher expired"
	MsgVoucherExhausted   = "Voucher time exhausted"
	MsgNoPackage          = "No service package assigned"
	MsgServiceUnavailable = "Service temporarily unavailable"
)

// Bridge wires the phase handlers to the store and the session registry.
type Bridge struct {
	Store    Store
	Lookup   *subscriber.Lookup
	Registry *session.Registry
	Enforcer *entitlement.Enforcer
	Logger   logger.Logger
	Now      func() time.Time
}

// New returns a Bridge using the wall clock.
func New(store Store, registry *session.Registry, log logger.Logger) *Bridge {
	return &Bridge{
		Store:    store,
		Lookup:   subscriber.NewLookup(store),
		Registry: registry,
		Enforcer: entitlement.NewEnforcer(store, registry, log),
		Logger:   log,
		Now:      time.Now,
	}
}

// SetClock replaces the time source of the bridge and its enforcer.
func (b *Bridge) SetClock(now func() time.Time) {
	b.Now = now
	b.Enforcer.Now = now
}

// rejection is a deliberate refusal carrying the Reply-Message for the NAS.
type rejection struct {
	message string
}

func (r *rejection) Error() string { return r.message }

func reject(message string) error {
	return &rejection{message: message}
}

// rejectMap renders err as a Reply-Message map. Internal faults are logged
// and masked.
func rejectMap(log logger.Logger, err error) reply.Map {
	var r *rejection
	if errors.As(err, &r) {
		log.WithFields(map[string]any{"reason": r.message}).Info("Request rejected")
		return reply.Message(r.message)
	}
	log.Error(err)
	return reply.Message(MsgServiceUnavailable)
}
