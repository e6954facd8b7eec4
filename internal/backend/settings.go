package backend

import (
	"context"
	"net/url"

	"loyalty-gateway/internal/login/models"
)

// ShopSettingsReader fetches per-shop configuration through the same
// token-keyed channel as customer resolution, authenticated with the session
// credential minted earlier in the request.
type ShopSettingsReader struct {
	client *Client
}

func NewShopSettingsReader(client *Client) *ShopSettingsReader {
	return &ShopSettingsReader{client: client}
}

// SettingsByToken reads the shop settings for the shop the token resolves
// to. The registration point rate is parsed leniently; junk values become
// zero rather than errors.
func (s *ShopSettingsReader) SettingsByToken(ctx context.Context, identityToken, credential string) (models.ShopSettings, error) {
	query := url.Values{"line_token": []string{identityToken}}
	resp, err := s.client.getJSON(ctx, "/api/v1/shops/settings", query, credential)
	if err != nil {
		return models.ShopSettings{}, err
	}

	settings := resp.obj("settings")
	if settings == nil {
		return models.ShopSettings{}, nil
	}
	return models.ShopSettings{
		RegisterPointRate: parseRate(settings["rate_register_point"]),
	}, nil
}

// PointsLedger posts loyalty-point transactions.
type PointsLedger struct {
	client *Client
}

func NewPointsLedger(client *Client) *PointsLedger {
	return &PointsLedger{client: client}
}

type awardPayload struct {
	CustomerID string `json:"customer_id"`
	Detail     string `json:"detail"`
	Points     int    `json:"points"`
}

// AwardPoints posts a single ledger transaction. There is no retry: the
// ledger call is attempted exactly once per registration.
func (l *PointsLedger) AwardPoints(ctx context.Context, credential string, tx models.IncentiveTransaction) error {
	_, err := l.client.postJSON(ctx, "/api/v1/points", awardPayload{
		CustomerID: tx.CustomerID,
		Detail:     tx.Detail,
		Points:     tx.Points,
	}, credential)
	return err
}
