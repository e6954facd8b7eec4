package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyalty-gateway/internal/login/models"
	dErrors "loyalty-gateway/pkg/domain-errors"
	"loyalty-gateway/pkg/platform/sentinel"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client, srv
}

func TestDirectoryEmployeeStructuredHit(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/employees/by-token", r.URL.Path)
		assert.Equal(t, "T1", r.URL.Query().Get("line_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"exists": true,
			"employee": {"id": "E1", "name": "Arisa", "avatar": "http://img/e1.png", "shop_id": "S1"},
			"shop": {"id": "S1", "name": "Ekkamai"}
		}`))
	}))

	match, err := NewDirectory(client).EmployeeByToken(context.Background(), "T1")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, models.RoleEmployee, match.Principal.Role)
	assert.Equal(t, "E1", match.Principal.ID)
	assert.Equal(t, "T1", match.Principal.IdentityToken)
	assert.Equal(t, "S1", match.Principal.ShopID)
	assert.Empty(t, match.Principal.Phone, "employees carry no phone")
	assert.JSONEq(t, `{"id": "S1", "name": "Ekkamai"}`, string(match.Shop))
}

func TestDirectoryCustomerLegacyHitDefaultsPhone(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"customer": {"id": "C1", "name": "Mook"}}`))
	}))

	match, err := NewDirectory(client).CustomerByToken(context.Background(), "T2")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, models.RoleCustomer, match.Principal.Role)
	assert.Equal(t, models.PlaceholderPhone, match.Principal.Phone)
}

func TestDirectoryMissReturnsNilNil(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"exists": false}`))
	}))

	match, err := NewDirectory(client).EmployeeByToken(context.Background(), "T3")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestDirectoryUpstreamFailureIsAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "directory down", http.StatusBadGateway)
	}))

	match, err := NewDirectory(client).EmployeeByToken(context.Background(), "T4")
	require.Error(t, err)
	assert.Nil(t, match)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}

func TestDirectoryMalformedBodyIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := NewDirectory(client).CustomerByToken(context.Background(), "T5")
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestRegistrarSuccessNormalizesShapes(t *testing.T) {
	var received map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": {"id": "C7"}, "shop": {"id": "S2"}}`))
	}))

	match, err := NewRegistrar(client).RegisterCustomer(context.Background(), models.Registration{
		IdentityToken: "T6",
		Name:          "Nan",
		AvatarURL:     "http://img/nan.png",
		ShopID:        "S2",
		BranchID:      "B1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PlaceholderPhone, received["phone"], "placeholder phone sent upstream")
	assert.Equal(t, "C7", match.Principal.ID)
	assert.Equal(t, models.CreatedViaQR, match.Principal.CreatedVia)
	assert.Equal(t, models.PlaceholderPhone, match.Principal.Phone)
	assert.Equal(t, "Nan", match.Principal.Name, "profile fields backfilled when upstream omits them")
	assert.Equal(t, "S2", match.Principal.ShopID)
	assert.Equal(t, "B1", match.Principal.BranchID)
}

func TestRegistrarMirrorsUpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message": "duplicate line token"}`))
	}))

	_, err := NewRegistrar(client).RegisterCustomer(context.Background(), models.Registration{IdentityToken: "T7", ShopID: "S1"})
	require.Error(t, err)

	assert.Equal(t, dErrors.CodeProvisionError, dErrors.CodeOf(err))
	assert.Equal(t, http.StatusConflict, dErrors.ToHTTPStatus(err))
	assert.Equal(t, "duplicate line token", dErrors.MessageOf(err))
}

func TestRegistrarRejectsRecordlessResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "accepted"}`))
	}))

	_, err := NewRegistrar(client).RegisterCustomer(context.Background(), models.Registration{IdentityToken: "T8", ShopID: "S1"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeProvisionError, dErrors.CodeOf(err))
}

func TestMintSessionChecksFieldsInOrder(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "employee", body["user_type"])
		assert.Equal(t, "E1", body["user_id"])
		_, _ = w.Write([]byte(`{"access_token": "minted-cred"}`))
	}))

	token, err := NewSessionMinter(client).MintSession(context.Background(), models.SessionRequest{
		IdentityToken: "T1",
		UserType:      models.RoleEmployee,
		UserID:        "E1",
	})
	require.NoError(t, err)
	assert.Equal(t, "minted-cred", token)
}

func TestMintSessionNoRecognizedField(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"expires_in": 900}`))
	}))

	_, err := NewSessionMinter(client).MintSession(context.Background(), models.SessionRequest{IdentityToken: "T1"})
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestSettingsByTokenSendsCredential(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer minted-cred", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"settings": {"rate_register_point": "2.5"}}`))
	}))

	settings, err := NewShopSettingsReader(client).SettingsByToken(context.Background(), "T1", "minted-cred")
	require.NoError(t, err)
	assert.Equal(t, 2.5, settings.RegisterPointRate)
}

func TestSettingsByTokenMissingSettingsObject(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	settings, err := NewShopSettingsReader(client).SettingsByToken(context.Background(), "T1", "cred")
	require.NoError(t, err)
	assert.Zero(t, settings.RegisterPointRate)
}

func TestAwardPointsPostsOnce(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "C1", body["customer_id"])
		assert.Equal(t, float64(3), body["points"])
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))

	err := NewPointsLedger(client).AwardPoints(context.Background(), "cred", models.IncentiveTransaction{
		CustomerID: "C1",
		Points:     3,
		Detail:     "sign-up bonus",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestUpstreamMessageFallsBackToBody(t *testing.T) {
	assert.Equal(t, "plain failure", upstreamMessage([]byte("plain failure")))
	assert.Equal(t, "detailed", upstreamMessage([]byte(`{"detail": "detailed"}`)))
}

func TestClientContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDirectory(client).EmployeeByToken(ctx, "T1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, sentinel.ErrUnavailable))
}
