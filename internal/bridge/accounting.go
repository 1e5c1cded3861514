package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"layeh.com/radius/rfc2866"

	"github.com/mohit83k/radius-bridge/internal/entitlement"
	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
	"github.com/mohit83k/radius-bridge/internal/subscriber"
)

// Accounting ingests one accounting event. It returns nil in every case
// except an Interim-Update for a subscriber whose entitlement has lapsed, in
// which case it returns the disconnect attributes in the same flat form as
// CoA. Failures are logged and
// swallowed: FreeRADIUS must never retry accounting because of us.
func (b *Bridge) Accounting(ctx context.Context, req model.RadiusRequest) reply.Map {
	log := b.Logger.WithFields(map[string]any{
		"phase":    "accounting",
		"username": req.UserName,
		"status":   req.AcctStatusType,
		"session":  req.AcctSessionID,
	})

	status, err := model.ParseAcctStatusType(req.AcctStatusType)
	if err != nil {
		log.Warn(err.Error())
		return nil
	}

	switch status {
	case rfc2866.AcctStatusType_Value_AccountingOn, rfc2866.AcctStatusType_Value_AccountingOff:
		removed := b.Registry.RemoveByNAS(req.NASIPAddress)
		log.WithFields(map[string]any{
			"nas_ip":  req.NASIPAddress,
			"removed": removed,
		}).Info("NAS accounting state reset")
		return nil
	}

	sub, err := b.Lookup.Resolve(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, subscriber.ErrUnknownSubscriber) {
			log.Warn("Accounting for unknown subscriber ignored")
		} else {
			log.Error(fmt.Errorf("accounting lookup failed: %w", err))
		}
		return nil
	}
	log = log.WithFields(map[string]any{"kind": sub.Kind()})

	now := b.Now()
	switch status {
	case rfc2866.AcctStatusType_Value_Start:
		b.Registry.Add(b.sessionFor(sub, req, now))

	case rfc2866.AcctStatusType_Value_Stop:
		b.Registry.Remove(sub.Identifier())

	case rfc2866.AcctStatusType_Value_InterimUpdate:
		expired, err := b.Enforcer.EnforceIfExpired(ctx, sub)
		if err != nil {
			log.Error(err)
		}
		if expired {
			log.Info("Entitlement lapsed mid-session, ordering disconnect")
			return entitlement.DisconnectAttributes().Flat()
		}
		if _, ok := b.Registry.Get(sub.Identifier()); !ok {
			b.Registry.Add(b.sessionFor(sub, req, now))
		}
	}

	if err := b.upsertAccounting(ctx, sub, status, req); err != nil {
		log.Error(err)
	}
	if err := b.applyUsage(ctx, log, sub, status, req); err != nil {
		log.Error(err)
	}

	log.WithFields(map[string]any{
		"total_bytes":  req.TotalBytes(),
		"session_time": req.SessionTime,
	}).Info("Stored accounting record")
	return nil
}

func (b *Bridge) sessionFor(sub model.Subscriber, req model.RadiusRequest, now time.Time) session.Session {
	return session.Session{
		Username:        sub.Identifier(),
		SessionID:       req.AcctSessionID,
		StartTime:       now,
		Kind:            sub.Kind(),
		NASIPAddress:    req.NASIPAddress,
		FramedIPAddress: req.FramedIPAddress,
	}
}

// upsertAccounting overwrites the subscriber's live accounting document.
// Deltas are measured against the last persisted cumulative values; when a
// counter went backwards (a new session) the new cumulative value is the
// delta.
func (b *Bridge) upsertAccounting(ctx context.Context, sub model.Subscriber, status rfc2866.AcctStatusType, req model.RadiusRequest) error {
	prior, err := b.Store.GetAccounting(ctx, sub.Identifier())
	if err != nil && !errors.Is(err, redisclient.ErrNotFound) {
		return fmt.Errorf("failed to load accounting record: %w", err)
	}

	now := b.Now()
	rec := model.AccountingRecord{
		Username:          sub.Identifier(),
		Kind:              sub.Kind(),
		AcctSessionID:     req.AcctSessionID,
		AcctStatusType:    status.String(),
		TotalInputBytes:   req.InputBytes(),
		TotalOutputBytes:  req.OutputBytes(),
		TotalBytes:        req.TotalBytes(),
		SessionTime:       req.SessionTime,
		FramedIPAddress:   req.FramedIPAddress,
		NASIPAddress:      req.NASIPAddress,
		NASPort:           req.NASPort,
		CalledStationID:   req.CalledStationID,
		CallingStationID:  req.CallingStationID,
		MikrotikRateLimit: req.RateLimit,
		TerminateCause:    req.TerminateCause,
		Timestamp:         now,
		LastUpdate:        now,
	}

	if prior != nil {
		rec.DeltaInputBytes = delta(rec.TotalInputBytes, prior.TotalInputBytes)
		rec.DeltaOutputBytes = delta(rec.TotalOutputBytes, prior.TotalOutputBytes)
		rec.DeltaSessionTime = delta(rec.SessionTime, prior.SessionTime)
		rec.StartTime = prior.StartTime
		if !prior.Timestamp.IsZero() {
			rec.Timestamp = prior.Timestamp
		}
		if rec.MikrotikRateLimit == "" {
			rec.MikrotikRateLimit = prior.MikrotikRateLimit
		}
	} else {
		rec.DeltaInputBytes = rec.TotalInputBytes
		rec.DeltaOutputBytes = rec.TotalOutputBytes
		rec.DeltaSessionTime = rec.SessionTime
	}

	if status == rfc2866.AcctStatusType_Value_Start {
		rec.StartTime = &now
	}

	return b.Store.SaveAccounting(ctx, rec)
}

func delta(current, prior int64) int64 {
	if current < prior {
		return current
	}
	return current - prior
}

// applyUsage updates voucher caps and customer liveness. Voucher usage only
// moves on Stop and Interim-Update. Only usage, status and liveness fields
// are written; everything else is taken from the stored document.
func (b *Bridge) applyUsage(ctx context.Context, log logger.Logger, sub model.Subscriber, status rfc2866.AcctStatusType, req model.RadiusRequest) error {
	switch s := sub.(type) {
	case *model.Voucher:
		if status != rfc2866.AcctStatusType_Value_Stop && status != rfc2866.AcctStatusType_Value_InterimUpdate {
			return nil
		}
		var before model.VoucherStatus
		err := b.Store.UpdateVoucher(ctx, s.Code, func(v *model.Voucher) error {
			before = v.Status
			// The NAS reports running session totals; each event adds them
			// in full.
			v.RecordUsage(req.TotalBytes(), req.SessionTime)
			*s = *v
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save voucher usage: %w", err)
		}
		if s.Status != before {
			log.WithFields(map[string]any{
				"from":      before,
				"to":        s.Status,
				"data_used": s.DataUsed,
				"time_used": s.TimeUsed,
			}).Info("Voucher usage cap reached")
		}

	case *model.Customer:
		var online bool
		switch status {
		case rfc2866.AcctStatusType_Value_Start, rfc2866.AcctStatusType_Value_InterimUpdate:
			online = true
		case rfc2866.AcctStatusType_Value_Stop:
		default:
			return nil
		}
		now := b.Now()
		err := b.Store.UpdateCustomer(ctx, s.Username, func(c *model.Customer) error {
			if online {
				c.MarkOnline(now)
			} else {
				c.Online = false
			}
			*s = *c
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save customer liveness: %w", err)
		}
	}
	return nil
}
