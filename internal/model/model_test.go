package model

import (
	"encoding/json"
	"testing"
	"time"

	"layeh.com/radius/rfc2866"
)

func TestOctets_GigawordOverflow(t *testing.T) {
	if got := Octets(100, 1); got != 4294967396 {
		t.Errorf("expected 4294967396, got %d", got)
	}

	req := RadiusRequest{InputOctets: 100, InputGigawords: 1, OutputOctets: 50, OutputGigawords: 2}
	if req.InputBytes() != 4294967396 {
		t.Errorf("unexpected input bytes %d", req.InputBytes())
	}
	if want := int64(4294967396 + 50 + 2*4294967296); req.TotalBytes() != want {
		t.Errorf("expected total %d, got %d", want, req.TotalBytes())
	}
}

func TestUnitConversions(t *testing.T) {
	durations := map[string]int64{
		"minutes": 60, "Minute": 60, "hours": 3600, "HOURS": 3600,
		"days": 86400, "day": 86400, "": 3600, "fortnights": 3600,
	}
	for unit, want := range durations {
		if got := DurationUnitSeconds(unit); got != want {
			t.Errorf("DurationUnitSeconds(%q) = %d, want %d", unit, got, want)
		}
	}

	data := map[string]int64{
		"B": 1, "kb": 1024, "MB": 1048576, "GB": 1073741824, "TB": 1099511627776, "": 1048576,
	}
	for unit, want := range data {
		if got := DataUnitBytes(unit); got != want {
			t.Errorf("DataUnitBytes(%q) = %d, want %d", unit, got, want)
		}
	}
}

func TestParseAcctStatusType(t *testing.T) {
	tests := []struct {
		in      string
		want    rfc2866.AcctStatusType
		wantErr bool
	}{
		{"Start", rfc2866.AcctStatusType_Value_Start, false},
		{"stop", rfc2866.AcctStatusType_Value_Stop, false},
		{"INTERIM-UPDATE", rfc2866.AcctStatusType_Value_InterimUpdate, false},
		{"interim_update", rfc2866.AcctStatusType_Value_InterimUpdate, false},
		{"Alive", rfc2866.AcctStatusType_Value_InterimUpdate, false},
		{"accounting-on", rfc2866.AcctStatusType_Value_AccountingOn, false},
		{"Accounting-Off", rfc2866.AcctStatusType_Value_AccountingOff, false},
		{"3", rfc2866.AcctStatusType_Value_InterimUpdate, false},
		{"2", rfc2866.AcctStatusType_Value_Stop, false},
		{"15", 0, true},
		{"", 0, true},
		{"Reboot", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAcctStatusType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAcctStatusType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAcctStatusType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPackage_ServiceTypeNormalizedOnLoad(t *testing.T) {
	tests := map[string]ServiceType{
		`{"id":"p1","serviceType":"hotspot"}`: ServiceTypeHotspot,
		`{"id":"p1","serviceType":"Dhcp"}`:    ServiceTypeDHCP,
		`{"id":"p1","serviceType":"static"}`:  ServiceTypeStatic,
		`{"id":"p1","serviceType":"fiber"}`:   ServiceTypePPPoE,
		`{"id":"p1"}`:                         ServiceTypePPPoE,
	}

	for doc, want := range tests {
		var pkg Package
		if err := json.Unmarshal([]byte(doc), &pkg); err != nil {
			t.Fatalf("unmarshal %s: %v", doc, err)
		}
		if pkg.ServiceType != want {
			t.Errorf("%s: expected %s, got %s", doc, want, pkg.ServiceType)
		}
		if pkg.ID != "p1" {
			t.Errorf("%s: other fields lost: %+v", doc, pkg)
		}
	}
}

func TestVoucher_ActivateAndRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &Voucher{Code: "ABC123", Status: VoucherActive, Duration: 2, DurationUnit: "hours"}

	if !v.FirstUse() {
		t.Fatal("expected fresh voucher to be on first use")
	}
	if got := v.Activate(now); got != 7200 {
		t.Errorf("expected 7200s, got %d", got)
	}
	if v.Status != VoucherInUse || v.UsedAt == nil || !v.SessionEnd.Equal(now.Add(2*time.Hour)) {
		t.Errorf("unexpected voucher after activation: %+v", v)
	}
	if v.FirstUse() {
		t.Error("activated voucher must not be on first use")
	}

	// The window is fixed once set, even if the duration is edited later.
	v.Duration = 10
	if got := v.RemainingSeconds(now.Add(time.Hour)); got != 3600 {
		t.Errorf("expected 3600s remaining, got %d", got)
	}
	if got := v.RemainingSeconds(now.Add(3 * time.Hour)); got != 0 {
		t.Errorf("expected 0s remaining after window, got %d", got)
	}
}

func TestVoucher_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		v    Voucher
		want bool
	}{
		{"active", Voucher{Status: VoucherActive}, false},
		{"in use inside window", Voucher{Status: VoucherInUse, SessionEnd: &future, ExpiresAt: &future}, false},
		{"validity passed", Voucher{Status: VoucherActive, ExpiresAt: &past}, true},
		{"window closed", Voucher{Status: VoucherInUse, SessionEnd: &past}, true},
		{"depleted", Voucher{Status: VoucherDepleted}, true},
		{"revoked", Voucher{Status: VoucherRevoked}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVoucher_ExpireKeepsTerminalStatus(t *testing.T) {
	v := &Voucher{Status: VoucherDepleted}
	v.Expire()
	if v.Status != VoucherDepleted {
		t.Errorf("expected depleted to stick, got %s", v.Status)
	}

	v = &Voucher{Status: VoucherInUse}
	v.Expire()
	if v.Status != VoucherExpired {
		t.Errorf("expected expired, got %s", v.Status)
	}
}

func TestVoucher_RecordUsage(t *testing.T) {
	t.Run("data cap", func(t *testing.T) {
		v := &Voucher{Status: VoucherInUse, DataLimit: 100, DataLimitUnit: "MB", Duration: 1}
		v.RecordUsage(60*1048576, 10)
		if v.Status != VoucherInUse {
			t.Fatalf("expected in_use below cap, got %s", v.Status)
		}
		v.RecordUsage(40*1048576, 10)
		if v.Status != VoucherDepleted {
			t.Errorf("expected depleted at 104857600 bytes, got %s (used %d)", v.Status, v.DataUsed)
		}
	})

	t.Run("duration cap", func(t *testing.T) {
		v := &Voucher{Status: VoucherInUse, Duration: 1, DurationUnit: "hours"}
		v.RecordUsage(0, 3600)
		if v.Status != VoucherExpired || v.TimeUsed != 3600 {
			t.Errorf("expected expired with 3600s used, got %+v", v)
		}
	})

	t.Run("terminal only accumulates", func(t *testing.T) {
		v := &Voucher{Status: VoucherExpired, DataLimit: 1, DataLimitUnit: "B"}
		v.RecordUsage(10, 0)
		if v.Status != VoucherExpired || v.DataUsed != 10 {
			t.Errorf("unexpected voucher: %+v", v)
		}
	})
}

func TestCustomer_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (&Customer{}).Expired(now) {
		t.Error("customer without expiration date must not expire")
	}
	if !(&Customer{ExpirationDate: &past}).Expired(now) {
		t.Error("expected expired customer")
	}
	if (&Customer{ExpirationDate: &future}).Expired(now) {
		t.Error("expected valid customer")
	}
}

func TestRadiusRequest_IsHotspot(t *testing.T) {
	tests := []struct {
		name string
		req  RadiusRequest
		want bool
	}{
		{"login user", RadiusRequest{ServiceType: "Login-User"}, true},
		{"login user lowercase", RadiusRequest{ServiceType: "login-user"}, true},
		{"wireless port", RadiusRequest{NASPortType: "Wireless-802.11"}, true},
		{"wireless port code", RadiusRequest{NASPortType: "19"}, true},
		{"pppoe", RadiusRequest{ServiceType: "Framed-User", NASPortType: "Ethernet"}, false},
		{"empty", RadiusRequest{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.IsHotspot(); got != tt.want {
				t.Errorf("IsHotspot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriberKinds(t *testing.T) {
	var subs = []Subscriber{&Customer{Username: "alice"}, &Voucher{Code: "ABC123"}}
	if subs[0].Kind() != KindCustomer || subs[0].Identifier() != "alice" {
		t.Errorf("unexpected customer subscriber: %v %v", subs[0].Kind(), subs[0].Identifier())
	}
	if subs[1].Kind() != KindVoucher || subs[1].Identifier() != "ABC123" {
		t.Errorf("unexpected voucher subscriber: %v %v", subs[1].Kind(), subs[1].Identifier())
	}
}
