package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/internal/billing"
	"github.com/adsjeddah/ads-sub002/internal/pricing"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// nowFn is swapped in tests to pin date derivation.
var nowFn = func() time.Time { return time.Now().UTC() }

// InvoiceIssuer issues the billing document for a new subscription.
type InvoiceIssuer interface {
	CreateForSubscription(ctx context.Context, subscriptionID uuid.UUID) (*models.Invoice, error)
}

// CoverageRefresher recomputes an advertiser's derived coverage.
type CoverageRefresher interface {
	RefreshCoverage(ctx context.Context, advertiserID uuid.UUID) (advertisers.Coverage, error)
}

// Reconciler re-derives a subscription's financial state from its ledger.
type Reconciler interface {
	ReconcileSubscription(ctx context.Context, subscriptionID uuid.UUID) (billing.ReconcileOutcome, error)
}

// CreateInput captures a subscription purchase or renewal.
type CreateInput struct {
	AdvertiserID  uuid.UUID
	PlanID        uuid.UUID
	StartDate     time.Time
	EndDate       *time.Time // optional custom range; default start + plan duration
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
}

// Service owns subscription lifecycle: purchase, renewal, discount
// adjustment, cancellation and expiry.
type Service struct {
	repo     Repository
	invoices InvoiceIssuer
	coverage CoverageRefresher
	recon    Reconciler
	logg     *logger.Logger
}

// NewService wires the subscription service.
func NewService(repo Repository, invoices InvoiceIssuer, coverage CoverageRefresher, recon Reconciler, logg *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		invoices: invoices,
		coverage: coverage,
		recon:    recon,
		logg:     logg,
	}
}

// Create purchases a plan for an advertiser: copies the plan's price as the
// base, applies the discount, issues the invoice and refreshes coverage.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Subscription, error) {
	plan, err := s.repo.FindPlan(ctx, input.PlanID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading plan")
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found").
			WithDetails(map[string]any{"plan_id": input.PlanID})
	}
	if !plan.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan is not purchasable")
	}
	if !pricing.RecognizedTier(plan.DurationDays) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan duration tier is no longer offered").
			WithDetails(map[string]any{"duration_days": plan.DurationDays})
	}

	adv, err := s.repo.FindAdvertiser(ctx, input.AdvertiserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading advertiser")
	}
	if adv == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advertiser not found").
			WithDetails(map[string]any{"advertiser_id": input.AdvertiserID})
	}

	start := input.StartDate
	if start.IsZero() {
		start = nowFn()
	}
	end := start.AddDate(0, 0, plan.DurationDays)
	if input.EndDate != nil {
		if !input.EndDate.After(start) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
		}
		end = *input.EndDate
	}

	discountType := input.DiscountType
	if discountType == "" {
		discountType = enums.DiscountTypeAmount
	}
	totals, err := billing.ComputeTotal(plan.Price, discountType, input.DiscountValue)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:              uuid.New(),
		AdvertiserID:    adv.ID,
		PlanID:          plan.ID,
		CoverageScope:   plan.CoverageScope,
		City:            plan.City,
		StartDate:       start,
		EndDate:         end,
		BasePrice:       plan.Price,
		DiscountType:    discountType,
		DiscountValue:   input.DiscountValue,
		TotalAmount:     totals.Total,
		PaidAmount:      decimal.Zero,
		RemainingAmount: totals.Total,
		Status:          enums.SubscriptionStatusPendingPayment,
		PaymentStatus:   billing.DerivePaymentStatus(decimal.Zero, totals.Total),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating subscription")
	}

	if _, err := s.invoices.CreateForSubscription(ctx, sub.ID); err != nil {
		return nil, err
	}
	if _, err := s.coverage.RefreshCoverage(ctx, adv.ID); err != nil {
		s.logg.Error(s.logg.WithAdvertiserID(ctx, adv.ID.String()), "coverage refresh after purchase failed", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"subscription_id": sub.ID.String(),
		"advertiser_id":   adv.ID.String(),
		"plan_id":         plan.ID.String(),
		"total":           sub.TotalAmount.StringFixed(2),
		"clamped":         totals.Clamped,
	}), "subscription created")
	return sub, nil
}

// Renew starts a fresh subscription on the same plan, beginning when the
// previous one ends (or now, whichever is later). The new record prices from
// the plan's current price, not the old subscription's.
func (s *Service) Renew(ctx context.Context, subscriptionID uuid.UUID, discountType enums.DiscountType, discountValue decimal.Decimal) (*models.Subscription, error) {
	prev, err := s.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	start := prev.EndDate
	if now := nowFn(); start.Before(now) {
		start = now
	}

	return s.Create(ctx, CreateInput{
		AdvertiserID:  prev.AdvertiserID,
		PlanID:        prev.PlanID,
		StartDate:     start,
		DiscountType:  discountType,
		DiscountValue: discountValue,
	})
}

// Get returns a subscription by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found").
			WithDetails(map[string]any{"subscription_id": id})
	}
	return sub, nil
}

// ListByAdvertiser returns an advertiser's subscriptions, newest first.
func (s *Service) ListByAdvertiser(ctx context.Context, advertiserID uuid.UUID) ([]models.Subscription, error) {
	subs, err := s.repo.ListByAdvertiser(ctx, advertiserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing subscriptions")
	}
	return subs, nil
}

// AdjustDiscount changes the discount on a live subscription, recomputes the
// total and re-derives the financial state from the payment ledger.
func (s *Service) AdjustDiscount(ctx context.Context, id uuid.UUID, discountType enums.DiscountType, discountValue decimal.Decimal) (*models.Subscription, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot adjust a cancelled subscription")
	}

	totals, err := billing.ComputeTotal(sub.BasePrice, discountType, discountValue)
	if err != nil {
		return nil, err
	}

	sub.DiscountType = discountType
	sub.DiscountValue = discountValue
	sub.TotalAmount = totals.Total
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating subscription discount")
	}

	// The new total changes remaining/payment_status; let the engine re-derive
	// them from the ledger instead of patching by hand.
	if _, err := s.recon.ReconcileSubscription(ctx, sub.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Activate marks a subscription active (admin action after first payment or
// manual confirmation).
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot activate a cancelled subscription")
	}
	if err := s.repo.UpdateStatus(ctx, id, enums.SubscriptionStatusActive); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activating subscription")
	}
	sub.Status = enums.SubscriptionStatusActive
	return sub, nil
}

// Cancel terminates a subscription and refreshes the advertiser's coverage,
// since a cancelled subscription stops contributing immediately.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status.IsTerminal() {
		return sub, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, enums.SubscriptionStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling subscription")
	}
	sub.Status = enums.SubscriptionStatusCancelled

	if _, err := s.coverage.RefreshCoverage(ctx, sub.AdvertiserID); err != nil {
		s.logg.Error(s.logg.WithAdvertiserID(ctx, sub.AdvertiserID.String()), "coverage refresh after cancel failed", err)
	}

	s.logg.Info(s.logg.WithSubscriptionID(ctx, id.String()), "subscription cancelled")
	return sub, nil
}

// ExpireDue transitions every active subscription past its end date to
// expired and refreshes coverage for the affected advertisers. Returns the
// number expired.
func (s *Service) ExpireDue(ctx context.Context, asOf time.Time) (int, error) {
	expired, err := s.repo.ExpireDue(ctx, asOf)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expiring subscriptions")
	}
	if len(expired) == 0 {
		return 0, nil
	}

	advertisers := map[uuid.UUID]struct{}{}
	for _, sub := range expired {
		advertisers[sub.AdvertiserID] = struct{}{}
	}
	for advertiserID := range advertisers {
		if _, err := s.coverage.RefreshCoverage(ctx, advertiserID); err != nil {
			s.logg.Error(s.logg.WithAdvertiserID(ctx, advertiserID.String()), "coverage refresh after expiry failed", err)
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "count", len(expired)), "subscriptions expired")
	return len(expired), nil
}
