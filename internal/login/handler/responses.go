package handler

import (
	"encoding/json"
	"net/http"

	"loyalty-gateway/internal/login/models"
	dErrors "loyalty-gateway/pkg/domain-errors"
	"loyalty-gateway/pkg/platform/httputil"
)

// LoginResponse is the success envelope for POST /auth/line/login. Shop and
// Branch are forwarded verbatim from the record store.
type LoginResponse struct {
	Role       string          `json:"role"`
	UserType   string          `json:"user_type"`
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Avatar     string          `json:"avatar"`
	Phone      string          `json:"phone,omitempty"`
	CreatedVia string          `json:"created_via,omitempty"`
	ShopID     string          `json:"shop_id,omitempty"`
	BranchID   string          `json:"branch_id,omitempty"`
	Shop       json.RawMessage `json:"shop,omitempty"`
	Branch     json.RawMessage `json:"branch,omitempty"`
	Token      string          `json:"token"`
}

// FromResult converts a pipeline result into the response envelope.
func FromResult(result *models.LoginResult) *LoginResponse {
	p := result.Principal
	return &LoginResponse{
		Role:       string(p.Role),
		UserType:   string(p.Role),
		ID:         p.ID,
		Name:       p.Name,
		Avatar:     p.AvatarURL,
		Phone:      p.Phone,
		CreatedVia: p.CreatedVia,
		ShopID:     p.ShopID,
		BranchID:   p.BranchID,
		Shop:       result.Shop,
		Branch:     result.Branch,
		Token:      result.Token,
	}
}

// errorResponse is the envelope for the two expected negative paths. The
// error_code values are part of the caller contract.
type errorResponse struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	LineToken string `json:"line_token,omitempty"`
	Error     string `json:"error,omitempty"`
}

// writeError maps a pipeline error onto the protocol envelopes: 404 for an
// unregistered token, the mirrored upstream status for a failed provision,
// and a generic 500 otherwise.
func writeError(w http.ResponseWriter, err error, lineToken string) {
	status := dErrors.ToHTTPStatus(err)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotRegistered:
		httputil.WriteJSON(w, status, errorResponse{
			Message:   dErrors.MessageOf(err),
			ErrorCode: string(dErrors.CodeNotRegistered),
			LineToken: lineToken,
		})
	case dErrors.CodeProvisionError:
		httputil.WriteJSON(w, status, errorResponse{
			Message:   dErrors.MessageOf(err),
			ErrorCode: string(dErrors.CodeProvisionError),
		})
	case dErrors.CodeBadRequest:
		httputil.WriteJSON(w, status, errorResponse{
			Message:   dErrors.MessageOf(err),
			ErrorCode: string(dErrors.CodeBadRequest),
		})
	default:
		httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "login failed",
			Error:   err.Error(),
		})
	}
}
