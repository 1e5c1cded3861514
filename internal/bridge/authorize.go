package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"layeh.com/radius/rfc2865"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/profile"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
	"github.com/mohit83k/radius-bridge/internal/reply"
)

// Authorize decides whether the subscriber may start a session and returns
// the attribute map for the NAS. A rejection is a map holding only a
// Reply-Message. Authorize never touches the customer's online flag.
func (b *Bridge) Authorize(ctx context.Context, req model.RadiusRequest) reply.Map {
	log := b.Logger.WithFields(map[string]any{
		"phase":    "authorize",
		"username": req.UserName,
		"hotspot":  req.IsHotspot(),
	})

	var (
		attrs reply.Attributes
		err   error
	)
	if req.IsHotspot() {
		attrs, err = b.authorizeVoucher(ctx, req.UserName)
	} else {
		attrs, err = b.authorizeCustomer(ctx, req.UserName)
	}
	if err != nil {
		return rejectMap(log, err)
	}

	log.Info("Authorize accepted")
	return attrs.Render()
}

func (b *Bridge) authorizeVoucher(ctx context.Context, code string) (reply.Attributes, error) {
	v, err := b.Store.GetVoucher(ctx, code)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, reject(MsgInvalidVoucher)
	}
	if err != nil {
		return nil, err
	}

	now := b.Now()
	if !v.Status.Usable() {
		return nil, reject("Voucher " + string(v.Status))
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return nil, reject(MsgVoucherExpired)
	}

	pkg, err := b.packageFor(ctx, v.PackageID)
	if err != nil {
		return nil, err
	}

	if v.FirstUse() {
		// Another request may have activated the voucher since it was read.
		activated := false
		err := b.Store.UpdateVoucher(ctx, v.Code, func(cur *model.Voucher) error {
			if !cur.Status.Usable() {
				return reject("Voucher " + string(cur.Status))
			}
			activated = cur.FirstUse()
			if activated {
				cur.Activate(now)
			}
			*v = *cur
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to activate voucher: %w", err)
		}
		if activated {
			b.Logger.WithFields(map[string]any{
				"username":    v.Code,
				"session_end": v.SessionEnd,
			}).Info("Voucher activated")
		}
	}
	if v.SessionEnd != nil && !v.SessionEnd.After(now) {
		return nil, reject(MsgVoucherExhausted)
	}
	timeout := v.RemainingSeconds(now)

	prof := profile.Build(pkg)

	var attrs reply.Attributes
	attrs.Add("Auth-Type", "CHAP")
	attrs.Add("Cleartext-Password", v.Code)
	attrs.Add(profile.AttrServiceType, rfc2865.ServiceType_Value_LoginUser.String())
	attrs.Add("CHAP-Password", v.Code)
	attrs.Add(profile.AttrRateLimit, prof.RateLimit)
	if timeout > 0 {
		attrs.Add(profile.AttrSessionTimeout, strconv.FormatInt(timeout, 10))
	}
	if limit := v.DataLimitBytes(); limit > 0 {
		attrs.Add(profile.AttrTotalLimit, strconv.FormatInt(limit, 10))
	}
	attrs.Merge(prof.Attributes)

	return attrs, nil
}

func (b *Bridge) authorizeCustomer(ctx context.Context, username string) (reply.Attributes, error) {
	c, err := b.Store.GetCustomer(ctx, username)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, reject(MsgLoginInvalid)
	}
	if err != nil {
		return nil, err
	}

	if !c.Active() {
		return nil, reject(MsgLoginDisabled)
	}
	if c.Expired(b.Now()) {
		return nil, reject(MsgAccessExpired)
	}

	pkg, err := b.packageFor(ctx, c.PackageID)
	if err != nil {
		return nil, err
	}

	attrs := reply.Attributes{{Name: "Cleartext-Password", Value: c.Password}}
	attrs.Merge(profile.Build(pkg).All())
	return attrs, nil
}

func (b *Bridge) packageFor(ctx context.Context, id string) (*model.Package, error) {
	if id == "" {
		return nil, reject(MsgNoPackage)
	}
	pkg, err := b.Store.GetPackage(ctx, id)
	if errors.Is(err, redisclient.ErrNotFound) {
		return nil, reject(MsgNoPackage)
	}
	return pkg, err
}
