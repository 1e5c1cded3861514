package model

import "time"

// CustomerStatusActive is the only customer status allowed to log in.
const CustomerStatusActive = "ACTIVE"

// Customer is a PPPoE/DHCP subscriber managed by the admin application.
// Only Online and LastSeen are written by this service.
type Customer struct {
	ID             string     `json:"id,omitempty"`
	Username       string     `json:"username"`
	Password       string     `json:"password"`
	OrganizationID string     `json:"organizationId,omitempty"`
	PackageID      string     `json:"packageId"`
	Status         string     `json:"status"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	Online         bool       `json:"online"`
	LastSeen       *time.Time `json:"lastSeen,omitempty"`
}

// Active reports whether the account is enabled.
func (c *Customer) Active() bool {
	return c.Status == CustomerStatusActive
}

// Expired reports whether the paid-for access window closed before now.
// A customer without an expiration date never expires.
func (c *Customer) Expired(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}

// MarkOnline flips the liveness flag and refreshes LastSeen.
func (c *Customer) MarkOnline(now time.Time) {
	c.Online = true
	c.LastSeen = &now
}
