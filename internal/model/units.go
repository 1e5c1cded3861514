package model

import "strings"

// DurationUnitSeconds converts a voucher duration unit to seconds. Unknown
// units count as hours.
func DurationUnitSeconds(unit string) int64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "minute", "minutes", "min", "mins", "m":
		return 60
	case "day", "days", "d":
		return 86400
	default:
		return 3600
	}
}

// DataUnitBytes converts a data unit to bytes using binary multiples.
// Unknown units count as megabytes.
func DataUnitBytes(unit string) int64 {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "B", "BYTE", "BYTES":
		return 1
	case "KB":
		return 1 << 10
	case "GB":
		return 1 << 30
	case "TB":
		return 1 << 40
	default:
		return 1 << 20
	}
}

const gigaword = 1 << 32

// Octets rebuilds a 64-bit byte count from a wrapped 32-bit RADIUS counter
// and its gigaword overflow count.
func Octets(octets, gigawords int64) int64 {
	return octets + gigawords*gigaword
}
