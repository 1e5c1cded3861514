package bridge

import (
	"context"
	"fmt"

	"github.com/mohit83k/radius-bridge/internal/entitlement"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
)

// CoA runs the expiry check out of band. It returns the flat disconnect map
// when the subscriber had to be cut off, nil when no action was needed, and
// subscriber.ErrUnknownSubscriber when the identifier matches nothing. The
// subscriber is named by User-Name or, failing that, by Acct-Session-Id.
func (b *Bridge) CoA(ctx context.Context, req model.RadiusRequest) (reply.Map, error) {
	username := b.resolveUsername(req)

	sub, err := b.Lookup.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}

	expired, err := b.Enforcer.EnforceIfExpired(ctx, sub)
	if err != nil {
		return nil, err
	}
	if !expired {
		return nil, nil
	}

	b.Logger.WithFields(map[string]any{
		"phase":    "coa",
		"username": username,
		"kind":     sub.Kind(),
	}).Info("CoA disconnect issued")
	return entitlement.DisconnectAttributes().Flat(), nil
}

// Terminate drops a session on operator request. Customers are flagged
// offline; voucher status is left alone since nothing expired.
func (b *Bridge) Terminate(ctx context.Context, req model.RadiusRequest) (string, error) {
	username := b.resolveUsername(req)

	sub, err := b.Lookup.Resolve(ctx, username)
	if err != nil {
		return "", err
	}

	hadSession := b.Registry.Remove(sub.Identifier())

	if c, ok := sub.(*model.Customer); ok {
		err := b.Store.UpdateCustomer(ctx, c.Username, func(stored *model.Customer) error {
			stored.Online = false
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to mark %q offline: %w", c.Username, err)
		}
	}

	b.Logger.WithFields(map[string]any{
		"phase":       "terminate",
		"username":    sub.Identifier(),
		"kind":        sub.Kind(),
		"had_session": hadSession,
	}).Info("Session terminated by operator")

	return fmt.Sprintf("Session for %s terminated", sub.Identifier()), nil
}

// PostAuth records the outcome FreeRADIUS reports after authentication.
func (b *Bridge) PostAuth(_ context.Context, req model.RadiusRequest) {
	b.Logger.WithFields(map[string]any{
		"phase":           "post-auth",
		"username":        req.UserName,
		"nas_ip":          req.NASIPAddress,
		"calling_station": req.CallingStationID,
	}).Info("Post-auth received")
}

// ActiveSessions lists the live sessions known to this process.
func (b *Bridge) ActiveSessions() []session.Session {
	return b.Registry.List()
}

func (b *Bridge) resolveUsername(req model.RadiusRequest) string {
	if req.UserName != "" {
		return req.UserName
	}
	if s, ok := b.Registry.FindBySessionID(req.AcctSessionID); ok {
		return s.Username
	}
	return ""
}
