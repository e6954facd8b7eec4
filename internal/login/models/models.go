// Package models defines the types flowing through the login pipeline:
// requests, resolved principals, and the orchestration state machine.
package models

import "encoding/json"

// PlaceholderPhone is stored when the backend never supplied a phone number.
// Downstream CRM screens rely on the sentinel instead of an empty string.
const PlaceholderPhone = "-"

// CreatedViaQR marks customers auto-provisioned through a shop referral.
const CreatedViaQR = "qr"

// Role distinguishes the two identity domains a token can resolve into.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleCustomer Role = "customer"
)

// LoginRequest is the inbound payload. LineToken, Name, and Avatar come from
// the provider SDK on the client; ShopID/BranchID are present only when the
// login originated from a shop referral QR code.
type LoginRequest struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	ShopID    string `json:"shop_id,omitempty"`
	BranchID  string `json:"branch_id,omitempty"`
}

// ShopContext returns the referral pair carried by the request.
func (r LoginRequest) ShopContext() ShopContext {
	return ShopContext{ShopID: r.ShopID, BranchID: r.BranchID}
}

// ShopContext is the optional shop/branch referral accompanying a login.
// A zero ShopID means no referral.
type ShopContext struct {
	ShopID   string
	BranchID string
}

// Present reports whether a shop referral accompanies the login.
func (c ShopContext) Present() bool {
	return c.ShopID != ""
}

// Principal is the resolved internal identity for a login attempt. Employees
// never carry Phone or CreatedVia; customers always carry a non-empty Phone
// (the placeholder when unknown).
type Principal struct {
	Role          Role
	ID            string
	Name          string
	AvatarURL     string
	IdentityToken string
	ShopID        string
	BranchID      string
	Phone         string
	CreatedVia    string
}

// Match is a positive directory result: the principal plus whatever shop and
// branch objects the directory attached. Shop and Branch are forwarded to the
// caller verbatim; this subsystem never inspects them.
type Match struct {
	Principal Principal
	Shop      json.RawMessage
	Branch    json.RawMessage
}

// Registration is the creation request sent to the record store for an
// unmatched token arriving with a shop referral.
type Registration struct {
	IdentityToken string
	Name          string
	AvatarURL     string
	Phone         string
	ShopID        string
	BranchID      string
}

// SessionRequest asks the backend to mint a session credential for a
// resolved principal.
type SessionRequest struct {
	IdentityToken string
	Name          string
	AvatarURL     string
	UserType      Role
	UserID        string
	ShopID        string
	BranchID      string
}

// ShopSettings is the per-shop configuration read before awarding the
// sign-up incentive. RegisterPointRate is already parsed leniently; malformed
// upstream values arrive here as zero.
type ShopSettings struct {
	RegisterPointRate float64
}

// IncentiveTransaction is the one-time ledger credit for a fresh
// registration.
type IncentiveTransaction struct {
	CustomerID string
	Points     int
	Detail     string
}

// LoginResult is the successful outcome handed to the transport layer.
type LoginResult struct {
	Principal   Principal
	Shop        json.RawMessage
	Branch      json.RawMessage
	Token       string
	Provisioned bool
	// TokenFallback is true when session issuance failed and Token is the raw
	// provider identity token. Such a credential is provider-scoped, not
	// backend-scoped, and carries reduced trust.
	TokenFallback bool
}
