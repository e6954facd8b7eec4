package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"loyalty-gateway/internal/login/models"
	dErrors "loyalty-gateway/pkg/domain-errors"
)

// LoginRequest is the HTTP request body for POST /auth/line/login.
type LoginRequest struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	ShopID    string `json:"shop_id"`
	BranchID  string `json:"branch_id"`
}

// Validate rejects unusable requests before any backend call is made.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.LineToken = strings.TrimSpace(r.LineToken)
	if !govalidator.StringLength(r.LineToken, "1", "4096") {
		return dErrors.New(dErrors.CodeBadRequest, "line_token is required")
	}

	r.Name = strings.TrimSpace(r.Name)
	if !govalidator.StringLength(r.Name, "1", "255") {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}

	r.Avatar = strings.TrimSpace(r.Avatar)
	if !govalidator.StringLength(r.Avatar, "1", "2048") {
		return dErrors.New(dErrors.CodeBadRequest, "avatar is required")
	}
	if !govalidator.IsRequestURL(r.Avatar) {
		return dErrors.New(dErrors.CodeBadRequest, "avatar must be a URL")
	}

	if len(r.ShopID) > 100 || len(r.BranchID) > 100 {
		return dErrors.New(dErrors.CodeBadRequest, "invalid shop reference")
	}
	if r.ShopID == "" && r.BranchID != "" {
		return dErrors.New(dErrors.CodeBadRequest, "branch_id requires shop_id")
	}

	return nil
}

// ToModel converts the validated body into the pipeline request.
func (r *LoginRequest) ToModel() models.LoginRequest {
	return models.LoginRequest{
		LineToken: r.LineToken,
		Name:      r.Name,
		Avatar:    r.Avatar,
		ShopID:    r.ShopID,
		BranchID:  r.BranchID,
	}
}
