package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"loyalty-gateway/internal/login/metrics"
	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/internal/login/ports"
	dErrors "loyalty-gateway/pkg/domain-errors"
	"loyalty-gateway/pkg/platform/audit"
)

// Orchestrator runs the login state machine: employee check, customer check,
// optional provisioning, session issuance, and the one-time incentive. The
// transition rules live in models.Transition; this type only executes each
// state's action and records the outcome.
type Orchestrator struct {
	resolver    *Resolver
	provisioner *Provisioner
	issuer      *Issuer
	awarder     *Awarder

	guard   ports.RegistrationGuard
	audit   ports.AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer

	// group collapses concurrent logins for the same token within this
	// process; the guard handles races across instances.
	group singleflight.Group
}

type OrchestratorOption func(*Orchestrator)

func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.audit = publisher
	}
}

func WithGuard(guard ports.RegistrationGuard) OrchestratorOption {
	return func(o *Orchestrator) {
		o.guard = guard
	}
}

func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func NewOrchestrator(resolver *Resolver, provisioner *Provisioner, issuer *Issuer, awarder *Awarder, opts ...OrchestratorOption) (*Orchestrator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if provisioner == nil {
		return nil, fmt.Errorf("provisioner is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("issuer is required")
	}
	if awarder == nil {
		return nil, fmt.Errorf("awarder is required")
	}

	o := &Orchestrator{
		resolver:    resolver,
		provisioner: provisioner,
		issuer:      issuer,
		awarder:     awarder,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Login resolves the token to exactly one principal and returns the
// credentialed result. Concurrent calls for the same token share one
// execution.
func (o *Orchestrator) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	v, err, _ := o.group.Do(req.LineToken, func() (any, error) {
		return o.login(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.LoginResult), nil
}

func (o *Orchestrator) login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := o.tracer.Start(ctx, "login.pipeline")
	defer span.End()

	shop := req.ShopContext()
	subjectHash := audit.HashSubject(req.LineToken)
	span.SetAttributes(
		attribute.String("login.subject_hash", subjectHash),
		attribute.Bool("login.shop_referral", shop.Present()),
	)

	var (
		match        *models.Match
		provisioned  bool
		token        string
		fallback     bool
		claimed      bool
		provisionErr error
	)
	defer func() {
		if claimed && o.guard != nil {
			o.guard.Release(ctx, req.LineToken)
		}
	}()

	state := models.Transition(models.StateStart, models.EventHit, shop.Present(), provisioned)
	for !state.Terminal() {
		var ev models.StepEvent

		switch state {
		case models.StateEmployeeCheck:
			m, err := o.resolver.Employee(ctx, req.LineToken)
			if err != nil {
				return nil, o.fail(ctx, span, subjectHash, err)
			}
			ev = models.EventMiss
			if m != nil {
				match = m
				ev = models.EventHit
			}

		case models.StateCustomerCheck:
			m, err := o.resolver.Customer(ctx, req.LineToken)
			if err != nil {
				return nil, o.fail(ctx, span, subjectHash, err)
			}
			ev = models.EventMiss
			if m != nil {
				match = m
				ev = models.EventHit
			}

		case models.StateProvision:
			m, created, err := o.provision(ctx, req, subjectHash, &claimed)
			if err != nil {
				provisionErr = err
				ev = models.EventFailed
			} else {
				match = m
				provisioned = created
				ev = models.EventHit
			}

		case models.StateSessionIssue:
			token, fallback = o.issuer.Issue(ctx, match.Principal, shop)
			if fallback {
				if o.metrics != nil {
					o.metrics.SessionFallbacks.Inc()
				}
				ports.LogAudit(ctx, o.logger, o.audit, audit.Event{
					Action:      audit.ActionSessionFallback,
					Role:        string(match.Principal.Role),
					PrincipalID: match.Principal.ID,
					ShopID:      match.Principal.ShopID,
					SubjectHash: subjectHash,
				})
			}
			ev = models.EventHit

		case models.StateIncentiveAward:
			points, reason := o.awarder.Award(ctx, match.Principal, token)
			event := audit.Event{
				Action:      audit.ActionIncentiveAwarded,
				Role:        string(models.RoleCustomer),
				PrincipalID: match.Principal.ID,
				ShopID:      match.Principal.ShopID,
				Points:      points,
				SubjectHash: subjectHash,
			}
			if points > 0 {
				if o.metrics != nil {
					o.metrics.IncentivePoints.Add(float64(points))
				}
			} else {
				event.Action = audit.ActionIncentiveSkipped
				event.Reason = reason
			}
			ports.LogAudit(ctx, o.logger, o.audit, event)
			ev = models.EventHit

		default:
			return nil, o.fail(ctx, span, subjectHash, fmt.Errorf("login pipeline reached unexpected state %s", state))
		}

		state = models.Transition(state, ev, shop.Present(), provisioned)
	}
	span.SetAttributes(attribute.String("login.outcome", state.String()))

	if state == models.StateProvisionFailed {
		o.count(metrics.OutcomeProvisionFailed)
		ports.LogAudit(ctx, o.logger, o.audit, audit.Event{
			Action:      audit.ActionLoginRejected,
			Role:        string(models.RoleCustomer),
			ShopID:      req.ShopID,
			BranchID:    req.BranchID,
			Reason:      dErrors.MessageOf(provisionErr),
			SubjectHash: subjectHash,
		})
		return nil, provisionErr
	}

	if state == models.StateNotRegistered {
		o.count(metrics.OutcomeNotRegistered)
		ports.LogAudit(ctx, o.logger, o.audit, audit.Event{
			Action:      audit.ActionLoginRejected,
			Reason:      "no registered account for token",
			SubjectHash: subjectHash,
		})
		return nil, dErrors.New(dErrors.CodeNotRegistered, "no registered account matches this identity token")
	}

	o.count(outcomeFor(match.Principal.Role, provisioned))
	ports.LogAudit(ctx, o.logger, o.audit, audit.Event{
		Action:      audit.ActionLoginSucceeded,
		Role:        string(match.Principal.Role),
		PrincipalID: match.Principal.ID,
		ShopID:      match.Principal.ShopID,
		BranchID:    match.Principal.BranchID,
		SubjectHash: subjectHash,
	})

	return &models.LoginResult{
		Principal:     match.Principal,
		Shop:          match.Shop,
		Branch:        match.Branch,
		Token:         token,
		Provisioned:   provisioned,
		TokenFallback: fallback,
	}, nil
}

// provision creates the customer record under the registration guard. A held
// claim means another instance is mid-provision for the same token: re-check
// the directory once and adopt its record instead of creating a duplicate. A
// guard outage is logged and ignored; the record store's uniqueness
// constraint remains the backstop.
func (o *Orchestrator) provision(ctx context.Context, req models.LoginRequest, subjectHash string, claimed *bool) (*models.Match, bool, error) {
	if o.guard != nil {
		ok, err := o.guard.Acquire(ctx, req.LineToken)
		switch {
		case err != nil:
			if o.logger != nil {
				o.logger.WarnContext(ctx, "registration guard unavailable, provisioning without claim", "error", err)
			}
		case !ok:
			if m, lookupErr := o.resolver.Customer(ctx, req.LineToken); lookupErr == nil && m != nil {
				return m, false, nil
			} else if lookupErr != nil {
				return nil, false, lookupErr
			}
			// Claim holder has not committed yet; proceed and let the
			// record store arbitrate.
		default:
			*claimed = true
		}
	}

	m, err := o.provisioner.Provision(ctx, req)
	if err != nil {
		return nil, false, err
	}

	if o.metrics != nil {
		o.metrics.CustomersProvisioned.Inc()
	}
	ports.LogAudit(ctx, o.logger, o.audit, audit.Event{
		Action:      audit.ActionCustomerProvisioned,
		Role:        string(models.RoleCustomer),
		PrincipalID: m.Principal.ID,
		ShopID:      m.Principal.ShopID,
		BranchID:    m.Principal.BranchID,
		SubjectHash: subjectHash,
	})
	return m, true, nil
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, subjectHash string, err error) error {
	span.RecordError(err)
	o.count(metrics.OutcomeError)
	if o.logger != nil {
		o.logger.ErrorContext(ctx, "login pipeline failed", "subject_hash", subjectHash, "error", err)
	}
	return err
}

func (o *Orchestrator) count(outcome string) {
	if o.metrics != nil {
		o.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func outcomeFor(role models.Role, provisioned bool) string {
	switch {
	case provisioned:
		return metrics.OutcomeProvisioned
	case role == models.RoleEmployee:
		return metrics.OutcomeEmployee
	default:
		return metrics.OutcomeCustomer
	}
}
