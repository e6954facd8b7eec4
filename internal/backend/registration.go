package backend

import (
	"context"
	"errors"

	dErrors "loyalty-gateway/pkg/domain-errors"

	"loyalty-gateway/internal/login/models"
)

// Registrar creates customer records. Unlike the directory lookups, a failure
// here is fatal for the login: the error carries the upstream status and
// message so the transport layer can mirror them.
type Registrar struct {
	client *Client
}

func NewRegistrar(client *Client) *Registrar {
	return &Registrar{client: client}
}

type registerPayload struct {
	LineToken string `json:"line_token"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Phone     string `json:"phone"`
	ShopID    string `json:"shop_id"`
	BranchID  string `json:"branch_id,omitempty"`
}

// RegisterCustomer submits the creation request and normalizes whichever
// response shape comes back. The returned customer always has a non-empty
// phone and is marked as QR-provisioned.
func (r *Registrar) RegisterCustomer(ctx context.Context, reg models.Registration) (*models.Match, error) {
	phone := reg.Phone
	if phone == "" {
		phone = models.PlaceholderPhone
	}

	resp, err := r.client.postJSON(ctx, "/api/v1/customers", registerPayload{
		LineToken: reg.IdentityToken,
		Name:      reg.Name,
		Avatar:    reg.AvatarURL,
		Phone:     phone,
		ShopID:    reg.ShopID,
		BranchID:  reg.BranchID,
	}, "")
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			return nil, dErrors.Wrap(err, dErrors.CodeProvisionError, upstream.Message).WithStatus(upstream.Status)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeProvisionError, "customer creation failed")
	}

	record := registrationRecord(resp)
	if record == nil {
		return nil, dErrors.New(dErrors.CodeProvisionError, "customer creation returned no customer record")
	}

	principal := principalFromRecord(record, models.RoleCustomer, reg.IdentityToken)
	principal.CreatedVia = models.CreatedViaQR
	if principal.Name == "" {
		principal.Name = reg.Name
	}
	if principal.AvatarURL == "" {
		principal.AvatarURL = reg.AvatarURL
	}
	if principal.ShopID == "" {
		principal.ShopID = reg.ShopID
	}
	if principal.BranchID == "" {
		principal.BranchID = reg.BranchID
	}

	return &models.Match{
		Principal: principal,
		Shop:      resp["shop"],
		Branch:    resp["branch"],
	}, nil
}
