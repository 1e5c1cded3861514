// Package subscriber resolves a RADIUS User-Name to a customer or a voucher.
package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
)

// ErrUnknownSubscriber means neither a customer nor a voucher matched.
var ErrUnknownSubscriber = errors.New("unknown subscriber")

// Source is the part of the store the lookup reads.
type Source interface {
	GetCustomer(ctx context.Context, username string) (*model.Customer, error)
	GetVoucher(ctx context.Context, code string) (*model.Voucher, error)
}

// Lookup resolves identifiers against customers first, then vouchers.
type Lookup struct {
	source Source
}

// NewLookup returns a Lookup reading from source.
func NewLookup(source Source) *Lookup {
	return &Lookup{source: source}
}

// Resolve returns a *model.Customer or a *model.Voucher for identifier, or
// ErrUnknownSubscriber. Store failures are returned as-is so callers can tell
// an outage from an unknown name.
func (l *Lookup) Resolve(ctx context.Context, identifier string) (model.Subscriber, error) {
	if identifier == "" {
		return nil, ErrUnknownSubscriber
	}

	customer, err := l.source.GetCustomer(ctx, identifier)
	switch {
	case err == nil:
		return customer, nil
	case !errors.Is(err, redisclient.ErrNotFound):
		return nil, fmt.Errorf("customer lookup: %w", err)
	}

	voucher, err := l.source.GetVoucher(ctx, identifier)
	switch {
	case err == nil:
		return voucher, nil
	case errors.Is(err, redisclient.ErrNotFound):
		return nil, ErrUnknownSubscriber
	default:
		return nil, fmt.Errorf("voucher lookup: %w", err)
	}
}
