package plans

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/internal/pricing"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// CreateInput captures a new catalog plan. Price may be omitted (nil) to use
// the canonical policy price for the tier.
type CreateInput struct {
	Name          string
	Sector        enums.Sector
	CoverageScope enums.CoverageScope
	City          *string
	DurationDays  int
	Price         *decimal.Decimal
}

// UpdateInput carries optional plan edits; nil means leave unchanged.
type UpdateInput struct {
	Name   *string
	Price  *decimal.Decimal
	Active *bool
}

// PlanView is a catalog plan annotated with its policy divergence. A plan
// whose stored price differs from the resolver's canonical price is custom
// pricing, not an error; the audit surfaces it.
type PlanView struct {
	models.Plan
	PolicyPrice  *decimal.Decimal `json:"policy_price,omitempty"`
	OffPolicy    bool             `json:"off_policy"`
	PolicyExists bool             `json:"policy_exists"`
}

// Service owns the plan catalog.
type Service struct {
	repo     Repository
	resolver *pricing.Resolver
	logg     *logger.Logger
}

// NewService wires the plan service.
func NewService(repo Repository, resolver *pricing.Resolver, logg *logger.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logg: logg}
}

// Create adds a purchasable plan. The duration must be a recognized tier;
// city-scope plans must name their city, kingdom-scope plans must not.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Plan, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}
	if !input.Sector.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sector")
	}
	if !input.CoverageScope.IsPurchasable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plans are sold per city or kingdom-wide")
	}
	if !pricing.RecognizedTier(input.DurationDays) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "duration is not an offered tier").
			WithDetails(map[string]any{"duration_days": input.DurationDays, "offered": pricing.RecognizedTiers()})
	}
	if input.CoverageScope == enums.CoverageScopeCity && (input.City == nil || *input.City == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city plans must name their city")
	}
	if input.CoverageScope == enums.CoverageScopeKingdom && input.City != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kingdom plans cover every city")
	}

	price, policyOK := s.resolver.Resolve(pricing.Query{
		Sector:       input.Sector,
		Scope:        input.CoverageScope,
		City:         input.City,
		DurationDays: input.DurationDays,
	})
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		price = input.Price.Round(2)
	} else if !policyOK {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no policy price for this tier; provide one explicitly")
	}

	plan := &models.Plan{
		ID:            uuid.New(),
		Name:          input.Name,
		Sector:        input.Sector,
		CoverageScope: input.CoverageScope,
		City:          input.City,
		DurationDays:  input.DurationDays,
		Price:         price,
		Active:        true,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating plan")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"plan_id": plan.ID.String(),
		"sector":  plan.Sector.String(),
		"price":   plan.Price.StringFixed(2),
	}), "plan created")
	return plan, nil
}

// Get returns a plan with its policy annotation.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PlanView, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found").
			WithDetails(map[string]any{"plan_id": id})
	}
	view := s.annotate(*plan)
	return &view, nil
}

// Update applies partial edits.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Plan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found").
			WithDetails(map[string]any{"plan_id": id})
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name cannot be empty")
		}
		plan.Name = *input.Name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		plan.Price = input.Price.Round(2)
	}
	if input.Active != nil {
		plan.Active = *input.Active
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating plan")
	}
	return plan, nil
}

// Deactivate retires a plan from sale. Plans with subscriptions are never
// deleted; existing subscriptions keep pricing from their purchase.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	active := false
	return s.Update(ctx, id, UpdateInput{Active: &active})
}

// List returns the catalog with policy annotations.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]PlanView, error) {
	plans, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing plans")
	}

	views := make([]PlanView, 0, len(plans))
	for _, plan := range plans {
		views = append(views, s.annotate(plan))
	}
	return views, nil
}

func (s *Service) annotate(plan models.Plan) PlanView {
	view := PlanView{Plan: plan}
	policy, ok := s.resolver.Resolve(pricing.Query{
		Sector:       plan.Sector,
		Scope:        plan.CoverageScope,
		City:         plan.City,
		DurationDays: plan.DurationDays,
	})
	if !ok {
		return view
	}
	view.PolicyExists = true
	view.PolicyPrice = &policy
	view.OffPolicy = !plan.Price.Equal(policy)
	return view
}
