package backend

import (
	"context"
	"fmt"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/pkg/platform/sentinel"
)

// SessionMinter requests session credentials from the backend. The response
// credential field has gone by several names across backend releases; the
// extractor checks them in fixed priority order.
type SessionMinter struct {
	client *Client
}

func NewSessionMinter(client *Client) *SessionMinter {
	return &SessionMinter{client: client}
}

type sessionPayload struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	UserType  string `json:"user_type"`
	UserID    string `json:"user_id"`
	ShopID    string `json:"shop_id,omitempty"`
	BranchID  string `json:"branch_id,omitempty"`
}

// MintSession asks for a signed credential for the resolved principal.
// An empty credential in an otherwise successful response is an error; the
// caller decides what degraded behavior looks like.
func (m *SessionMinter) MintSession(ctx context.Context, req models.SessionRequest) (string, error) {
	resp, err := m.client.postJSON(ctx, "/api/v1/sessions", sessionPayload{
		LineToken: req.IdentityToken,
		Name:      req.Name,
		Avatar:    req.AvatarURL,
		UserType:  string(req.UserType),
		UserID:    req.UserID,
		ShopID:    req.ShopID,
		BranchID:  req.BranchID,
	}, "")
	if err != nil {
		return "", err
	}

	token := sessionToken(resp)
	if token == "" {
		return "", fmt.Errorf("session response had no recognized credential field: %w", sentinel.ErrUnavailable)
	}
	return token, nil
}
