package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventCategory classifies audit events by their primary purpose, which
// drives routing and retention downstream.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance, such as
	// auto-provisioning a customer record or crediting loyalty points.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such as
	// rejected logins and degraded session issuance.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from the login pipeline to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID        string        `json:"id"`
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Role      string        `json:"role,omitempty"`
	// PrincipalID is the resolved employee or customer id when known.
	PrincipalID string `json:"principal_id,omitempty"`
	ShopID      string `json:"shop_id,omitempty"`
	BranchID    string `json:"branch_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Points      int    `json:"points,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	ClientIP    string `json:"client_ip,omitempty"`
	DeviceOS    string `json:"device_os,omitempty"`
	// SubjectHash is a SHA-256 hash of the provider identity token so events
	// can be correlated per subject without storing the raw credential.
	SubjectHash string `json:"subject_hash,omitempty"`
}

type Action string

const (
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginRejected       Action = "login_rejected"
	ActionCustomerProvisioned Action = "customer_provisioned"
	ActionSessionFallback     Action = "session_fallback"
	ActionIncentiveAwarded    Action = "incentive_awarded"
	ActionIncentiveSkipped    Action = "incentive_skipped"
)

var actionCategories = map[Action]EventCategory{
	ActionCustomerProvisioned: CategoryCompliance,
	ActionIncentiveAwarded:    CategoryCompliance,

	ActionLoginRejected:   CategorySecurity,
	ActionSessionFallback: CategorySecurity,

	ActionLoginSucceeded:   CategoryOperations,
	ActionIncentiveSkipped: CategoryOperations,
}

// Categorize returns the category for an action, defaulting to operations.
func Categorize(action Action) EventCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// HashSubject produces the hex SHA-256 digest used for Event.SubjectHash.
func HashSubject(identityToken string) string {
	if identityToken == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identityToken))
	return hex.EncodeToString(sum[:])
}
