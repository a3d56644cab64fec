package subscriptions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

type stubRepo struct {
	plans         map[uuid.UUID]*models.Plan
	advertisers   map[uuid.UUID]*models.Advertiser
	subscriptions map[uuid.UUID]*models.Subscription
	expireDue     []models.Subscription
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		plans:         map[uuid.UUID]*models.Plan{},
		advertisers:   map[uuid.UUID]*models.Advertiser{},
		subscriptions: map[uuid.UUID]*models.Subscription{},
	}
}

func (r *stubRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubRepo) Create(_ context.Context, sub *models.Subscription) error {
	clone := *sub
	r.subscriptions[sub.ID] = &clone
	return nil
}

func (r *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, ok := r.subscriptions[id]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

func (r *stubRepo) ListByAdvertiser(_ context.Context, advertiserID uuid.UUID) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range r.subscriptions {
		if sub.AdvertiserID == advertiserID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *stubRepo) Update(_ context.Context, sub *models.Subscription) error {
	clone := *sub
	r.subscriptions[sub.ID] = &clone
	return nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.SubscriptionStatus) error {
	if sub, ok := r.subscriptions[id]; ok {
		sub.Status = status
	}
	return nil
}

func (r *stubRepo) ExpireDue(_ context.Context, _ time.Time) ([]models.Subscription, error) {
	return r.expireDue, nil
}

func (r *stubRepo) FindPlan(_ context.Context, id uuid.UUID) (*models.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	clone := *plan
	return &clone, nil
}

func (r *stubRepo) FindAdvertiser(_ context.Context, id uuid.UUID) (*models.Advertiser, error) {
	adv, ok := r.advertisers[id]
	if !ok {
		return nil, nil
	}
	clone := *adv
	return &clone, nil
}

type stubIssuer struct {
	issued []uuid.UUID
	err    error
}

func (s *stubIssuer) CreateForSubscription(_ context.Context, subID uuid.UUID) (*models.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.issued = append(s.issued, subID)
	return &models.Invoice{ID: uuid.New(), SubscriptionID: subID}, nil
}

type stubCoverage struct {
	refreshed []uuid.UUID
}

func (s *stubCoverage) RefreshCoverage(_ context.Context, advertiserID uuid.UUID) (advertisers.Coverage, error) {
	s.refreshed = append(s.refreshed, advertiserID)
	return advertisers.Coverage{}, nil
}

type stubReconciler struct {
	reconciled []uuid.UUID
}

func (s *stubReconciler) ReconcileSubscription(_ context.Context, subID uuid.UUID) (billing.ReconcileOutcome, error) {
	s.reconciled = append(s.reconciled, subID)
	return billing.ReconcileOutcome{SubscriptionID: subID}, nil
}

type fixture struct {
	repo     *stubRepo
	issuer   *stubIssuer
	coverage *stubCoverage
	recon    *stubReconciler
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newStubRepo(),
		issuer:   &stubIssuer{},
		coverage: &stubCoverage{},
		recon:    &stubReconciler{},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	f.svc = NewService(f.repo, f.issuer, f.coverage, f.recon, logg)
	return f
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return d
}

func seedPlan(f *fixture, price string, durationDays int) *models.Plan {
	city := "jeddah"
	plan := &models.Plan{
		ID:            uuid.New(),
		Name:          "city-monthly",
		Sector:        enums.SectorMovers,
		CoverageScope: enums.CoverageScopeCity,
		City:          &city,
		DurationDays:  durationDays,
		Price:         decimal.RequireFromString(price),
		Active:        true,
	}
	f.repo.plans[plan.ID] = plan
	return plan
}

func seedAdvertiser(f *fixture) *models.Advertiser {
	adv := &models.Advertiser{
		ID:          uuid.New(),
		CompanyName: "Jeddah Movers Co",
		Phone:       "+966500000000",
		Sector:      enums.SectorMovers,
		Status:      enums.AdvertiserStatusActive,
	}
	f.repo.advertisers[adv.ID] = adv
	return adv
}

func TestCreateCopiesPlanPriceAndDerivesDates(t *testing.T) {
	f := newFixture()
	plan := seedPlan(f, "1500.00", 30)
	adv := seedAdvertiser(f)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	sub, err := f.svc.Create(context.Background(), CreateInput{
		AdvertiserID:  adv.ID,
		PlanID:        plan.ID,
		StartDate:     start,
		DiscountType:  enums.DiscountTypeAmount,
		DiscountValue: dec(t, "100"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := sub.BasePrice.StringFixed(2); got != "1500.00" {
		t.Errorf("base price = %s, want plan price 1500.00", got)
	}
	if got := sub.TotalAmount.StringFixed(2); got != "1400.00" {
		t.Errorf("total = %s, want 1400.00", got)
	}
	if got := sub.RemainingAmount.StringFixed(2); got != "1400.00" {
		t.Errorf("remaining = %s, want full total before payments", got)
	}
	wantEnd := start.AddDate(0, 0, 30)
	if !sub.EndDate.Equal(wantEnd) {
		t.Errorf("end date = %s, want %s", sub.EndDate, wantEnd)
	}
	if sub.Status != enums.SubscriptionStatusPendingPayment {
		t.Errorf("status = %s, want pending_payment", sub.Status)
	}
	if sub.PaymentStatus != enums.PaymentStatusPending {
		t.Errorf("payment status = %s, want pending", sub.PaymentStatus)
	}

	if len(f.issuer.issued) != 1 || f.issuer.issued[0] != sub.ID {
		t.Error("expected invoice issued for the new subscription")
	}
	if len(f.coverage.refreshed) != 1 || f.coverage.refreshed[0] != adv.ID {
		t.Error("expected coverage refresh for the advertiser")
	}
}

func TestCreateHonorsCustomEndDate(t *testing.T) {
	f := newFixture()
	plan := seedPlan(f, "900.00", 14)
	adv := seedAdvertiser(f)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 21)

	sub, err := f.svc.Create(context.Background(), CreateInput{
		AdvertiserID: adv.ID,
		PlanID:       plan.ID,
		StartDate:    start,
		EndDate:      &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.EndDate.Equal(end) {
		t.Errorf("end date = %s, want custom %s", sub.EndDate, end)
	}
}

func TestCreateRejectsDeprecatedTier(t *testing.T) {
	f := newFixture()
	plan := seedPlan(f, "9000.00", 365)
	adv := seedAdvertiser(f)

	_, err := f.svc.Create(context.Background(), CreateInput{
		AdvertiserID: adv.ID,
		PlanID:       plan.ID,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Errorf("err = %v, want validation error for retired tier", err)
	}
}

func TestCreateRejectsInactivePlan(t *testing.T) {
	f := newFixture()
	plan := seedPlan(f, "1500.00", 30)
	plan.Active = false
	adv := seedAdvertiser(f)

	_, err := f.svc.Create(context.Background(), CreateInput{
		AdvertiserID: adv.ID,
		PlanID:       plan.ID,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestCreateUnknownPlanOrAdvertiser(t *testing.T) {
	f := newFixture()
	adv := seedAdvertiser(f)
	if _, err := f.svc.Create(context.Background(), CreateInput{AdvertiserID: adv.ID, PlanID: uuid.New()}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Errorf("unknown plan: err = %v, want not found", err)
	}

	plan := seedPlan(f, "1500.00", 30)
	if _, err := f.svc.Create(context.Background(), CreateInput{AdvertiserID: uuid.New(), PlanID: plan.ID}); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Errorf("unknown advertiser: err = %v, want not found", err)
	}
}

func TestRenewStartsWherePreviousEnds(t *testing.T) {
	restore := nowFn
	nowFn = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFn = restore }()

	f := newFixture()
	plan := seedPlan(f, "1500.00", 30)
	adv := seedAdvertiser(f)

	prevEnd := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	prev := &models.Subscription{
		ID:           uuid.New(),
		AdvertiserID: adv.ID,
		PlanID:       plan.ID,
		EndDate:      prevEnd,
		Status:       enums.SubscriptionStatusActive,
	}
	f.repo.subscriptions[prev.ID] = prev

	renewed, err := f.svc.Renew(context.Background(), prev.ID, enums.DiscountTypeAmount, dec(t, "100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !renewed.StartDate.Equal(prevEnd) {
		t.Errorf("start = %s, want previous end %s", renewed.StartDate, prevEnd)
	}
	if got := renewed.TotalAmount.StringFixed(2); got != "1400.00" {
		t.Errorf("total = %s, want 1400.00 (1500 base minus 100)", got)
	}
	if renewed.ID == prev.ID {
		t.Error("renewal must create a new subscription record")
	}
}

func TestAdjustDiscountRecomputesAndReconciles(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{
		ID:           uuid.New(),
		AdvertiserID: uuid.New(),
		BasePrice:    dec(t, "1500.00"),
		DiscountType: enums.DiscountTypeAmount,
		TotalAmount:  dec(t, "1500.00"),
		Status:       enums.SubscriptionStatusActive,
	}
	f.repo.subscriptions[sub.ID] = sub

	updated, err := f.svc.AdjustDiscount(context.Background(), sub.ID, enums.DiscountTypePercentage, dec(t, "20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := updated.TotalAmount.StringFixed(2); got != "1200.00" {
		t.Errorf("total = %s, want 1200.00", got)
	}
	if len(f.recon.reconciled) != 1 || f.recon.reconciled[0] != sub.ID {
		t.Error("expected a reconciliation pass after discount change")
	}
}

func TestAdjustDiscountRejectsCancelled(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{
		ID:        uuid.New(),
		BasePrice: dec(t, "1000.00"),
		Status:    enums.SubscriptionStatusCancelled,
	}
	f.repo.subscriptions[sub.ID] = sub

	_, err := f.svc.AdjustDiscount(context.Background(), sub.ID, enums.DiscountTypeAmount, dec(t, "50"))
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestCancelIsTerminalAndRefreshesCoverage(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{
		ID:           uuid.New(),
		AdvertiserID: uuid.New(),
		Status:       enums.SubscriptionStatusActive,
	}
	f.repo.subscriptions[sub.ID] = sub

	cancelled, err := f.svc.Cancel(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != enums.SubscriptionStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if len(f.coverage.refreshed) != 1 {
		t.Error("expected coverage refresh after cancel")
	}

	// Second cancel is a no-op.
	again, err := f.svc.Cancel(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if again.Status != enums.SubscriptionStatusCancelled {
		t.Errorf("status = %s, want cancelled", again.Status)
	}
	if len(f.coverage.refreshed) != 1 {
		t.Error("no-op cancel must not refresh coverage again")
	}
}

func TestExpireDueRefreshesEachAdvertiserOnce(t *testing.T) {
	f := newFixture()
	advertiserID := uuid.New()
	f.repo.expireDue = []models.Subscription{
		{ID: uuid.New(), AdvertiserID: advertiserID, Status: enums.SubscriptionStatusExpired},
		{ID: uuid.New(), AdvertiserID: advertiserID, Status: enums.SubscriptionStatusExpired},
	}

	count, err := f.svc.ExpireDue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(f.coverage.refreshed) != 1 {
		t.Errorf("coverage refreshed %d times, want once per advertiser", len(f.coverage.refreshed))
	}
}
