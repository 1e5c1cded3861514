// Package profile turns a stored bandwidth package into MikroTik reply
// attributes.
package profile

import (
	"fmt"
	"strconv"

	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2868"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/reply"
)

// Attribute names used in replies.
const (
	AttrRateLimit      = "Mikrotik-Rate-Limit"
	AttrQueuePriority  = "Mikrotik-Queue-Priority"
	AttrTotalLimit     = "Mikrotik-Total-Limit"
	AttrServiceType    = "Service-Type"
	AttrFramedProtocol = "Framed-Protocol"
	AttrFramedPool     = "Framed-Pool"
	AttrSessionTimeout = "Session-Timeout"
	AttrIdleTimeout    = "Idle-Timeout"
	AttrTunnelType     = "Tunnel-Type"
	AttrTunnelMedium   = "Tunnel-Medium-Type"
	AttrTunnelGroupID  = "Tunnel-Private-Group-Id"
)

const (
	defaultBurstTime = "10"
	defaultPriority  = "8"

	// VLAN (13) has no named constant in rfc2868.
	tunnelTypeVLAN = "VLAN"
	// DHCP is a MikroTik extension of Framed-Protocol.
	framedProtocolDHCP = "DHCP"
)

// Profile is the NAS-facing rendition of a package.
type Profile struct {
	RateLimit  string
	Attributes reply.Attributes
}

// All returns the rate limit followed by the other attributes.
func (p Profile) All() reply.Attributes {
	attrs := reply.Attributes{{Name: AttrRateLimit, Value: p.RateLimit}}
	attrs.Merge(p.Attributes)
	return attrs
}

// Build derives the rate-limit string and reply attributes for pkg.
func Build(pkg *model.Package) Profile {
	return Profile{
		RateLimit:  RateLimit(pkg),
		Attributes: attributes(pkg),
	}
}

// RateLimit formats the MikroTik rate-limit string: "up/down" when no burst
// is configured, otherwise
// "up/down burstUp/burstDown thresholdUp/thresholdDown burstTime/burstTime priority".
func RateLimit(pkg *model.Package) string {
	up := FormatSpeed(pkg.UploadSpeed)
	down := FormatSpeed(pkg.DownloadSpeed)
	if !pkg.HasBurst() {
		return up + "/" + down
	}

	burstUp := speedOr(pkg.BurstUpload, pkg.UploadSpeed)
	burstDown := speedOr(pkg.BurstDownload, pkg.DownloadSpeed)
	thresholdUp := speedOr(pkg.ThresholdUpload, pkg.UploadSpeed)
	thresholdDown := speedOr(pkg.ThresholdDownload, pkg.DownloadSpeed)

	burstTime := defaultBurstTime
	if pkg.BurstTime > 0 {
		burstTime = strconv.Itoa(pkg.BurstTime)
	}
	priority := defaultPriority
	if pkg.Priority > 0 {
		priority = strconv.Itoa(pkg.Priority)
	}

	return fmt.Sprintf("%s/%s %s/%s %s/%s %s/%s %s",
		up, down,
		burstUp, burstDown,
		thresholdUp, thresholdDown,
		burstTime, burstTime,
		priority)
}

// FormatSpeed converts Mbps to the MikroTik notation: whole megabits as
// "<n>M" from 1024k upwards, kilobits as "<n>k" below.
func FormatSpeed(mbps float64) string {
	kbps := int64(mbps * 1024)
	if kbps >= 1024 {
		return strconv.FormatInt(kbps/1024, 10) + "M"
	}
	if kbps < 0 {
		kbps = 0
	}
	return strconv.FormatInt(kbps, 10) + "k"
}

func speedOr(mbps, fallback float64) string {
	if mbps > 0 {
		return FormatSpeed(mbps)
	}
	return FormatSpeed(fallback)
}

func attributes(pkg *model.Package) reply.Attributes {
	var attrs reply.Attributes

	switch pkg.ServiceType {
	case model.ServiceTypePPPoE:
		attrs.Add(AttrServiceType, rfc2865.ServiceType_Value_FramedUser.String())
		attrs.Add(AttrFramedProtocol, rfc2865.FramedProtocol_Value_PPP.String())
	case model.ServiceTypeHotspot:
		attrs.Add(AttrServiceType, rfc2865.ServiceType_Value_LoginUser.String())
	case model.ServiceTypeDHCP:
		attrs.Add(AttrServiceType, rfc2865.ServiceType_Value_FramedUser.String())
		attrs.Add(AttrFramedProtocol, framedProtocolDHCP)
	}

	if pkg.AddressPool != "" {
		attrs.Add(AttrFramedPool, pkg.AddressPool)
	}
	if pkg.SessionTimeout > 0 {
		attrs.Add(AttrSessionTimeout, strconv.Itoa(pkg.SessionTimeout))
	}
	if pkg.IdleTimeout > 0 {
		attrs.Add(AttrIdleTimeout, strconv.Itoa(pkg.IdleTimeout))
	}
	if pkg.Priority > 0 {
		attrs.Add(AttrQueuePriority, strconv.Itoa(pkg.Priority))
	}
	if pkg.VlanID > 0 {
		attrs.Add(AttrTunnelType, tunnelTypeVLAN)
		attrs.Add(AttrTunnelMedium, rfc2868.TunnelMediumType_Value_IEEE802.String())
		attrs.Add(AttrTunnelGroupID, strconv.Itoa(pkg.VlanID))
	}

	return attrs
}
