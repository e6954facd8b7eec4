package backend

import (
	"context"
	"net/url"

	"loyalty-gateway/internal/login/models"
)

// Directory implements the employee and customer lookup ports against the
// record store. Both lookups accept the structured and the legacy response
// shape; absence is a nil match, never an error.
type Directory struct {
	client *Client
}

func NewDirectory(client *Client) *Directory {
	return &Directory{client: client}
}

// EmployeeByToken queries the employee directory by provider identity token.
func (d *Directory) EmployeeByToken(ctx context.Context, identityToken string) (*models.Match, error) {
	return d.lookup(ctx, "/api/v1/employees/by-token", "employee", models.RoleEmployee, identityToken)
}

// CustomerByToken queries the customer directory by provider identity token.
func (d *Directory) CustomerByToken(ctx context.Context, identityToken string) (*models.Match, error) {
	return d.lookup(ctx, "/api/v1/customers/by-token", "customer", models.RoleCustomer, identityToken)
}

func (d *Directory) lookup(ctx context.Context, path, field string, role models.Role, identityToken string) (*models.Match, error) {
	query := url.Values{"line_token": []string{identityToken}}
	resp, err := d.client.getJSON(ctx, path, query, "")
	if err != nil {
		return nil, err
	}

	record := directoryRecord(resp, field)
	if record == nil {
		return nil, nil
	}

	principal := principalFromRecord(record, role, identityToken)
	if principal.ID == "" {
		return nil, nil
	}

	return &models.Match{
		Principal: principal,
		Shop:      resp["shop"],
		Branch:    resp["branch"],
	}, nil
}

func principalFromRecord(record object, role models.Role, identityToken string) models.Principal {
	p := models.Principal{
		Role:          role,
		ID:            firstString(record, "id", string(role)+"_id"),
		Name:          firstString(record, "name", "display_name"),
		AvatarURL:     firstString(record, "avatar", "avatar_url", "picture_url"),
		IdentityToken: identityToken,
		ShopID:        record.str("shop_id"),
		BranchID:      record.str("branch_id"),
	}
	if role == models.RoleCustomer {
		p.Phone = record.str("phone")
		if p.Phone == "" {
			p.Phone = models.PlaceholderPhone
		}
		p.CreatedVia = record.str("created_via")
	}
	return p
}
