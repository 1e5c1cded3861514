package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/subscriber"
)

// Authenticate checks a PAP-style plaintext password. On success it returns
// (nil, true) and the caller answers 204; otherwise it returns the reject
// map. Customers are marked online here and nowhere else in the login path.
func (b *Bridge) Authenticate(ctx context.Context, req model.RadiusRequest) (reply.Map, bool) {
	log := b.Logger.WithFields(map[string]any{
		"phase":    "authenticate",
		"username": req.UserName,
	})

	if err := b.authenticate(ctx, req); err != nil {
		return rejectMap(log, err), false
	}

	log.Info("Authentication accepted")
	return nil, true
}

func (b *Bridge) authenticate(ctx context.Context, req model.RadiusRequest) error {
	sub, err := b.Lookup.Resolve(ctx, req.UserName)
	if errors.Is(err, subscriber.ErrUnknownSubscriber) {
		return reject(MsgLoginInvalid)
	}
	if err != nil {
		return err
	}

	switch s := sub.(type) {
	case *model.Customer:
		if req.Password != s.Password {
			return reject(MsgWrongPassword)
		}
		now := b.Now()
		if s.Expired(now) {
			return reject(MsgAccessExpired)
		}
		err := b.Store.UpdateCustomer(ctx, s.Username, func(c *model.Customer) error {
			c.MarkOnline(now)
			return nil
		})
		if err != nil {
			// Accept even if the liveness flag could not be written.
			b.Logger.Error(fmt.Errorf("failed to mark %q online: %w", s.Username, err))
		}
		return nil

	case *model.Voucher:
		if req.Password == "" || req.Password != req.UserName {
			return reject(MsgWrongPassword)
		}
		return nil
	}

	return reject(MsgLoginInvalid)
}
