package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"layeh.com/radius/rfc2866"
)

// AccountingRecord is the single live accounting document kept per
// subscriber identifier. Each event overwrites it; history is not retained.
type AccountingRecord struct {
	Username          string     `json:"username"`
	Kind              Kind       `json:"kind"`
	AcctSessionID     string     `json:"acctSessionId"`
	AcctStatusType    string     `json:"acctStatusType"`
	TotalInputBytes   int64      `json:"totalInputBytes"`
	TotalOutputBytes  int64      `json:"totalOutputBytes"`
	TotalBytes        int64      `json:"totalBytes"`
	SessionTime       int64      `json:"sessionTime"`
	DeltaInputBytes   int64      `json:"deltaInputBytes"`
	DeltaOutputBytes  int64      `json:"deltaOutputBytes"`
	DeltaSessionTime  int64      `json:"deltaSessionTime"`
	FramedIPAddress   string     `json:"framedIpAddress,omitempty"`
	NASIPAddress      string     `json:"nasIpAddress,omitempty"`
	NASPort           int        `json:"nasPort,omitempty"`
	CalledStationID   string     `json:"calledStationId,omitempty"`
	CallingStationID  string     `json:"callingStationId,omitempty"`
	MikrotikRateLimit string     `json:"mikrotikRateLimit,omitempty"`
	TerminateCause    string     `json:"terminateCause,omitempty"`
	StartTime         *time.Time `json:"startTime,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	LastUpdate        time.Time  `json:"lastUpdate"`
}

var knownStatusTypes = []rfc2866.AcctStatusType{
	rfc2866.AcctStatusType_Value_Start,
	rfc2866.AcctStatusType_Value_Stop,
	rfc2866.AcctStatusType_Value_InterimUpdate,
	rfc2866.AcctStatusType_Value_AccountingOn,
	rfc2866.AcctStatusType_Value_AccountingOff,
}

// ParseAcctStatusType resolves an Acct-Status-Type given either by name, in
// any case, or by its numeric code.
func ParseAcctStatusType(s string) (rfc2866.AcctStatusType, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		for _, known := range knownStatusTypes {
			if known == rfc2866.AcctStatusType(n) {
				return known, nil
			}
		}
		return 0, fmt.Errorf("unsupported Acct-Status-Type %q", s)
	}

	name := strings.ReplaceAll(s, "_", "-")
	if strings.EqualFold(name, "Alive") {
		return rfc2866.AcctStatusType_Value_InterimUpdate, nil
	}
	for _, known := range knownStatusTypes {
		if strings.EqualFold(name, known.String()) {
			return known, nil
		}
	}
	return 0, fmt.Errorf("unsupported Acct-Status-Type %q", s)
}
