package model

import (
	"strings"

	"layeh.com/radius/rfc2865"
)

const (
	nasPortTypeWireless     = "Wireless-802.11"
	nasPortTypeWirelessCode = "19"
)

// RadiusRequest is the flattened attribute set FreeRADIUS posts for any
// phase. Missing numeric attributes decode as zero.
type RadiusRequest struct {
	UserName         string
	Password         string
	ServiceType      string
	NASPortType      string
	AcctStatusType   string
	AcctSessionID    string
	SessionTime      int64
	InputOctets      int64
	InputGigawords   int64
	OutputOctets     int64
	OutputGigawords  int64
	FramedIPAddress  string
	NASIPAddress     string
	NASPort          int
	CalledStationID  string
	CallingStationID string
	TerminateCause   string
	RateLimit        string
}

// InputBytes is the 64-bit input byte count.
func (r RadiusRequest) InputBytes() int64 {
	return Octets(r.InputOctets, r.InputGigawords)
}

// OutputBytes is the 64-bit output byte count.
func (r RadiusRequest) OutputBytes() int64 {
	return Octets(r.OutputOctets, r.OutputGigawords)
}

// TotalBytes is input plus output, both overflow-corrected.
func (r RadiusRequest) TotalBytes() int64 {
	return r.InputBytes() + r.OutputBytes()
}

// IsHotspot guesses whether the request comes from a hotspot login page
// rather than a PPPoE dialer, from the request attributes alone.
func (r RadiusRequest) IsHotspot() bool {
	st := strings.TrimSpace(r.ServiceType)
	if strings.EqualFold(st, rfc2865.ServiceType_Value_LoginUser.String()) || st == "1" {
		return true
	}
	pt := strings.TrimSpace(r.NASPortType)
	return strings.EqualFold(pt, nasPortTypeWireless) || pt == nasPortTypeWirelessCode
}
