package plans

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/internal/pricing"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

type stubRepo struct {
	plans map[uuid.UUID]*models.Plan
}

func newStubRepo() *stubRepo {
	return &stubRepo{plans: map[uuid.UUID]*models.Plan{}}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, plan *models.Plan) error {
	clone := *plan
	r.plans[plan.ID] = &clone
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	clone := *plan
	return &clone, nil
}

func (r *stubRepo) Update(_ context.Context, plan *models.Plan) error {
	clone := *plan
	r.plans[plan.ID] = &clone
	return nil
}

func (r *stubRepo) List(_ context.Context, includeInactive bool) ([]models.Plan, error) {
	var out []models.Plan
	for _, plan := range r.plans {
		if !includeInactive && !plan.Active {
			continue
		}
		out = append(out, *plan)
	}
	return out, nil
}

func (r *stubRepo) HasSubscriptions(_ context.Context, _ uuid.UUID) (bool, error) {
	return false, nil
}

func testService(repo *stubRepo) *Service {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, pricing.NewResolver(), logg)
}

func strPtr(s string) *string { return &s }

func TestCreateUsesPolicyPriceWhenOmitted(t *testing.T) {
	repo := newStubRepo()
	plan, err := testService(repo).Create(context.Background(), CreateInput{
		Name:          "movers-jeddah-30",
		Sector:        enums.SectorMovers,
		CoverageScope: enums.CoverageScopeCity,
		City:          strPtr("jeddah"),
		DurationDays:  30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plan.Price.StringFixed(2); got != "1500.00" {
		t.Errorf("price = %s, want policy 1500.00", got)
	}
}

func TestCreateAcceptsCustomPrice(t *testing.T) {
	repo := newStubRepo()
	custom := decimal.RequireFromString("1234.00")
	plan, err := testService(repo).Create(context.Background(), CreateInput{
		Name:          "custom",
		Sector:        enums.SectorCleaning,
		CoverageScope: enums.CoverageScopeKingdom,
		DurationDays:  14,
		Price:         &custom,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Price.Equal(custom) {
		t.Errorf("price = %s, want custom 1234.00", plan.Price)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := testService(newStubRepo())

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"deprecated tier", CreateInput{Name: "x", Sector: enums.SectorMovers, CoverageScope: enums.CoverageScopeKingdom, DurationDays: 90}},
		{"city plan without city", CreateInput{Name: "x", Sector: enums.SectorMovers, CoverageScope: enums.CoverageScopeCity, DurationDays: 7}},
		{"kingdom plan with city", CreateInput{Name: "x", Sector: enums.SectorMovers, CoverageScope: enums.CoverageScopeKingdom, City: strPtr("jeddah"), DurationDays: 7}},
		{"both is not purchasable", CreateInput{Name: "x", Sector: enums.SectorMovers, CoverageScope: enums.CoverageScopeBoth, DurationDays: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestListAnnotatesOffPolicyPlans(t *testing.T) {
	repo := newStubRepo()
	svc := testService(repo)

	onPolicy := &models.Plan{
		ID:            uuid.New(),
		Name:          "on",
		Sector:        enums.SectorMovers,
		CoverageScope: enums.CoverageScopeKingdom,
		DurationDays:  30,
		Price:         decimal.RequireFromString("4500"),
		Active:        true,
	}
	offPolicy := &models.Plan{
		ID:            uuid.New(),
		Name:          "off",
		Sector:        enums.SectorMovers,
		CoverageScope: enums.CoverageScopeKingdom,
		DurationDays:  30,
		Price:         decimal.RequireFromString("3999"),
		Active:        true,
	}
	repo.plans[onPolicy.ID] = onPolicy
	repo.plans[offPolicy.ID] = offPolicy

	views, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := map[uuid.UUID]PlanView{}
	for _, view := range views {
		byID[view.ID] = view
	}
	if byID[onPolicy.ID].OffPolicy {
		t.Error("policy-priced plan flagged as off-policy")
	}
	if !byID[offPolicy.ID].OffPolicy {
		t.Error("custom-priced plan not flagged as off-policy")
	}
}

func TestDeactivateRetiresFromSale(t *testing.T) {
	repo := newStubRepo()
	plan := &models.Plan{ID: uuid.New(), Name: "x", Active: true}
	repo.plans[plan.ID] = plan

	got, err := testService(repo).Deactivate(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Active {
		t.Error("plan still active after deactivate")
	}
}
