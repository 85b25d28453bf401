// Package plan maps plan identifiers to their entitlements.
package plan

import (
	"strings"
	"time"

	licensedomain "github.com/veilcrypt/licensed/internal/license/domain"
)

// Entitlement is the (cap, validity window) pair a plan grants. A zero
// Validity means the license never expires.
type Entitlement struct {
	MaxUsage int
	Validity time.Duration
}

const day = 24 * time.Hour

var catalog = map[string]Entitlement{
	"basic":      {MaxUsage: 100, Validity: 30 * day},
	"pro":        {MaxUsage: 1000, Validity: 90 * day},
	"enterprise": {MaxUsage: licensedomain.UnboundedUsage},
	"trial":      {MaxUsage: 10, Validity: 7 * day},
}

// Fallback covers unrecognized plan identifiers. An unknown plan is not an
// error.
var Fallback = Entitlement{MaxUsage: 50, Validity: 30 * day}

// Limits resolves a plan identifier case-insensitively.
func Limits(planID string) Entitlement {
	if e, ok := catalog[strings.ToLower(strings.TrimSpace(planID))]; ok {
		return e
	}
	return Fallback
}

// ExpiryFrom pins the validity window to an absolute timestamp. The window is
// resolved once at creation time and never re-evaluated.
func (e Entitlement) ExpiryFrom(now time.Time) *time.Time {
	if e.Validity == 0 {
		return nil
	}
	expires := now.Add(e.Validity)
	return &expires
}
