package devbackend

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"loyalty-gateway/internal/backend"
	"loyalty-gateway/internal/guard"
	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/internal/login/service"
	dErrors "loyalty-gateway/pkg/domain-errors"
)

// EndToEndSuite runs the full pipeline against the in-memory backend: real
// HTTP client, real extractors, real orchestration.
type EndToEndSuite struct {
	suite.Suite
	dev    *Server
	ts     *httptest.Server
	orch   *service.Orchestrator
	logger *slog.Logger
}

func TestEndToEndSuite(t *testing.T) {
	suite.Run(t, new(EndToEndSuite))
}

func (s *EndToEndSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.dev = New(WithLogger(s.logger))
	s.ts = httptest.NewServer(s.dev.Router())

	client, err := backend.NewClient(s.ts.URL, backend.WithLogger(s.logger))
	s.Require().NoError(err)

	directory := backend.NewDirectory(client)
	resolver, err := service.NewResolver(directory, directory, service.WithResolverLogger(s.logger))
	s.Require().NoError(err)
	provisioner, err := service.NewProvisioner(backend.NewRegistrar(client))
	s.Require().NoError(err)
	issuer, err := service.NewIssuer(backend.NewSessionMinter(client))
	s.Require().NoError(err)
	awarder, err := service.NewAwarder(backend.NewShopSettingsReader(client), backend.NewPointsLedger(client))
	s.Require().NoError(err)

	s.orch, err = service.NewOrchestrator(resolver, provisioner, issuer, awarder,
		service.WithLogger(s.logger),
		service.WithGuard(guard.NewMemory(guard.DefaultTTL)),
	)
	s.Require().NoError(err)
}

func (s *EndToEndSuite) TearDownTest() {
	s.ts.Close()
}

func (s *EndToEndSuite) TestEmployeeLogin() {
	s.dev.AddEmployee(Employee{ID: "E1", Name: "Arisa", LineToken: "T1"})
	s.dev.AddCustomer(Customer{ID: "C9", Name: "Shadow", LineToken: "T1", Phone: "0812345678"})

	result, err := s.orch.Login(context.Background(), models.LoginRequest{LineToken: "T1", Name: "Arisa"})
	s.Require().NoError(err)
	s.Equal(models.RoleEmployee, result.Principal.Role)
	s.Equal("E1", result.Principal.ID)
	s.NotEmpty(result.Token)
	s.False(result.TokenFallback)
	s.Empty(result.Principal.Phone, "employees carry no phone")
}

func (s *EndToEndSuite) TestExistingCustomerLogin() {
	s.dev.AddShop(Shop{ID: "S1", Name: "Corner Mart", RegisterPointRate: 10})
	s.dev.AddCustomer(Customer{ID: "C1", Name: "Nok", LineToken: "T2", Phone: "0812345678", ShopID: "S1"})

	result, err := s.orch.Login(context.Background(), models.LoginRequest{LineToken: "T2", Name: "Nok"})
	s.Require().NoError(err)
	s.Equal(models.RoleCustomer, result.Principal.Role)
	s.Equal("C1", result.Principal.ID)
	s.False(result.Provisioned)
	s.JSONEq(`{"id":"S1","name":"Corner Mart"}`, string(result.Shop))
	s.Empty(s.dev.Ledger(), "existing customers never receive the sign-up bonus")
}

func (s *EndToEndSuite) TestReferralProvisionsAndAwards() {
	s.dev.AddShop(Shop{ID: "S2", Name: "Night Market", RegisterPointRate: 2.5})

	result, err := s.orch.Login(context.Background(), models.LoginRequest{
		LineToken: "T3",
		Name:      "Mali",
		Avatar:    "https://cdn.example/m.png",
		ShopID:    "S2",
	})
	s.Require().NoError(err)
	s.True(result.Provisioned)
	s.Equal(models.CreatedViaQR, result.Principal.CreatedVia)
	s.Equal(models.PlaceholderPhone, result.Principal.Phone)
	s.NotEmpty(result.Token)
	s.False(result.TokenFallback)

	stored, ok := s.dev.CustomerByToken("T3")
	s.Require().True(ok)
	s.Equal("-", stored.Phone)

	ledger := s.dev.Ledger()
	s.Require().Len(ledger, 1)
	s.Equal(3, ledger[0].Points, "2.5 rounds up")
	s.Equal("sign-up bonus", ledger[0].Detail)
	s.Equal(stored.ID, ledger[0].CustomerID)
}

func (s *EndToEndSuite) TestUnmatchedTokenWithoutReferral() {
	_, err := s.orch.Login(context.Background(), models.LoginRequest{LineToken: "T4", Name: "Nobody"})
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotRegistered, dErrors.CodeOf(err))

	// Second attempt gives the same answer and leaves no record behind.
	_, err = s.orch.Login(context.Background(), models.LoginRequest{LineToken: "T4", Name: "Nobody"})
	s.Require().Error(err)
	s.Equal(dErrors.CodeNotRegistered, dErrors.CodeOf(err))
	_, exists := s.dev.CustomerByToken("T4")
	s.False(exists)
}

func (s *EndToEndSuite) TestDuplicateRegistrationMirrorsConflict() {
	s.dev.AddShop(Shop{ID: "S2", RegisterPointRate: 0})
	s.dev.AddCustomer(Customer{ID: "C5", Name: "Mali", LineToken: "T5", Phone: "-", ShopID: "S2"})

	// Force the conflict path by registering directly, bypassing the
	// directory check.
	client, err := backend.NewClient(s.ts.URL)
	s.Require().NoError(err)
	_, err = backend.NewRegistrar(client).RegisterCustomer(context.Background(), models.Registration{
		IdentityToken: "T5",
		Name:          "Mali",
	})
	s.Require().Error(err)
	s.Equal(dErrors.CodeProvisionError, dErrors.CodeOf(err))
	s.Equal(http.StatusConflict, dErrors.ToHTTPStatus(err))
}

func (s *EndToEndSuite) TestZeroRateShopAwardsNothing() {
	s.dev.AddShop(Shop{ID: "S3", Name: "Pop-up", RegisterPointRate: 0})

	result, err := s.orch.Login(context.Background(), models.LoginRequest{
		LineToken: "T6",
		Name:      "Chai",
		ShopID:    "S3",
	})
	s.Require().NoError(err)
	s.True(result.Provisioned)
	s.Empty(s.dev.Ledger())
}
