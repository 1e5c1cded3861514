package model

import (
	"encoding/json"
	"strings"
	"time"
)

// VoucherStatus tracks a prepaid hotspot voucher through its one-way
// lifecycle: active -> in_use -> expired|depleted. Revoked is set externally.
type VoucherStatus string

const (
	VoucherActive   VoucherStatus = "active"
	VoucherInUse    VoucherStatus = "in_use"
	VoucherExpired  VoucherStatus = "expired"
	VoucherDepleted VoucherStatus = "depleted"
	VoucherRevoked  VoucherStatus = "revoked"
)

// UnmarshalJSON accepts any casing written by the admin application.
func (s *VoucherStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = VoucherStatus(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// Usable reports whether the status still allows a login.
func (s VoucherStatus) Usable() bool {
	return s == VoucherActive || s == VoucherInUse
}

// Voucher is a prepaid hotspot credential. Code doubles as username and
// password.
type Voucher struct {
	Code           string        `json:"code"`
	OrganizationID string        `json:"organizationId,omitempty"`
	PackageID      string        `json:"packageId"`
	Status         VoucherStatus `json:"status"`
	ExpiresAt      *time.Time    `json:"expiresAt,omitempty"`
	Duration       int64         `json:"duration"`
	DurationUnit   string        `json:"durationUnit,omitempty"`
	DataLimit      float64       `json:"dataLimit,omitempty"`
	DataLimitUnit  string        `json:"dataLimitUnit,omitempty"`
	DataUsed       int64         `json:"dataUsed"`
	TimeUsed       int64         `json:"timeUsed"`
	SessionStart   *time.Time    `json:"sessionStart,omitempty"`
	SessionEnd     *time.Time    `json:"sessionEnd,omitempty"`
	UsedAt         *time.Time    `json:"usedAt,omitempty"`
}

// TotalSeconds is the purchased session length.
func (v *Voucher) TotalSeconds() int64 {
	return v.Duration * DurationUnitSeconds(v.DurationUnit)
}

// DataLimitBytes is the data cap in bytes, or 0 when the voucher is uncapped.
func (v *Voucher) DataLimitBytes() int64 {
	if v.DataLimit <= 0 {
		return 0
	}
	return int64(v.DataLimit * float64(DataUnitBytes(v.DataLimitUnit)))
}

// FirstUse reports whether the voucher has never been authorized.
func (v *Voucher) FirstUse() bool {
	return v.Status == VoucherActive && v.UsedAt == nil
}

// Activate consumes the voucher: the session window is fixed from now and
// never re-derived from Duration afterwards. A voucher without a duration
// gets no window.
func (v *Voucher) Activate(now time.Time) int64 {
	total := v.TotalSeconds()
	v.SessionStart = &now
	if total > 0 {
		end := now.Add(time.Duration(total) * time.Second)
		v.SessionEnd = &end
	}
	v.UsedAt = &now
	v.Status = VoucherInUse
	return total
}

// RemainingSeconds is the time left in the session window. A voucher without
// a window yet reports its full duration.
func (v *Voucher) RemainingSeconds(now time.Time) int64 {
	if v.SessionEnd == nil {
		return v.TotalSeconds()
	}
	remaining := int64(v.SessionEnd.Sub(now) / time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the voucher's entitlement has lapsed: a terminal
// status, a past validity date, or a closed session window.
func (v *Voucher) Expired(now time.Time) bool {
	if !v.Status.Usable() {
		return true
	}
	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return true
	}
	return v.SessionEnd != nil && v.SessionEnd.Before(now)
}

// Expire moves a usable voucher to expired. Depleted and revoked vouchers
// keep their status.
func (v *Voucher) Expire() {
	if v.Status.Usable() {
		v.Status = VoucherExpired
	}
}

// RecordUsage adds one accounting event's bytes and seconds and applies the
// data and duration caps. A voucher already in a terminal status only
// accumulates.
func (v *Voucher) RecordUsage(bytes, seconds int64) {
	v.DataUsed += bytes
	v.TimeUsed += seconds

	if !v.Status.Usable() {
		return
	}
	if limit := v.DataLimitBytes(); limit > 0 && v.DataUsed >= limit {
		v.Status = VoucherDepleted
		return
	}
	if total := v.TotalSeconds(); total > 0 && v.TimeUsed >= total {
		v.Status = VoucherExpired
	}
}
