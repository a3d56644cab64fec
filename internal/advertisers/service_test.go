package advertisers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	"github.com/adsjeddah/ads-sub002/pkg/pagination"
)

type stubAdvRepo struct {
	advertisers   map[uuid.UUID]*models.Advertiser
	order         []uuid.UUID
	subscriptions map[uuid.UUID][]models.Subscription

	subsErrFor      map[uuid.UUID]error
	coverageUpdates map[uuid.UUID]Coverage
}

func newStubAdvRepo() *stubAdvRepo {
	return &stubAdvRepo{
		advertisers:     map[uuid.UUID]*models.Advertiser{},
		subscriptions:   map[uuid.UUID][]models.Subscription{},
		subsErrFor:      map[uuid.UUID]error{},
		coverageUpdates: map[uuid.UUID]Coverage{},
	}
}

func (r *stubAdvRepo) add(adv *models.Advertiser) {
	r.advertisers[adv.ID] = adv
	r.order = append(r.order, adv.ID)
}

func (r *stubAdvRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubAdvRepo) Create(_ context.Context, adv *models.Advertiser) error {
	r.add(adv)
	return nil
}

func (r *stubAdvRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Advertiser, error) {
	adv, ok := r.advertisers[id]
	if !ok {
		return nil, nil
	}
	clone := *adv
	return &clone, nil
}

func (r *stubAdvRepo) Update(_ context.Context, adv *models.Advertiser) error {
	r.advertisers[adv.ID] = adv
	return nil
}

func (r *stubAdvRepo) List(_ context.Context, _ ListFilter, _ int, _ *pagination.Cursor) ([]models.Advertiser, error) {
	return nil, nil
}

func (r *stubAdvRepo) ListIDs(_ context.Context, limit, offset int) ([]uuid.UUID, error) {
	if offset >= len(r.order) {
		return nil, nil
	}
	ids := r.order[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *stubAdvRepo) ListSubscriptions(_ context.Context, advertiserID uuid.UUID) ([]models.Subscription, error) {
	if err := r.subsErrFor[advertiserID]; err != nil {
		return nil, err
	}
	return r.subscriptions[advertiserID], nil
}

func (r *stubAdvRepo) UpdateCoverage(_ context.Context, id uuid.UUID, scope enums.CoverageScope, cities []string) error {
	adv := r.advertisers[id]
	adv.CoverageType = scope
	adv.CoverageCities = cities
	r.coverageUpdates[id] = Coverage{Scope: scope, Cities: cities}
	return nil
}

func (r *stubAdvRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.AdvertiserStatus) error {
	r.advertisers[id].Status = status
	return nil
}

func testAdvService(repo *stubAdvRepo) *Service {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(repo, logg)
}

func testAdvertiser() *models.Advertiser {
	return &models.Advertiser{
		ID:           uuid.New(),
		CompanyName:  "Test Movers",
		Phone:        "0500000000",
		Sector:       enums.SectorMovers,
		Status:       enums.AdvertiserStatusActive,
		CoverageType: enums.CoverageScopeCity,
	}
}

func TestRefreshCoverageNoopWhenUnchanged(t *testing.T) {
	repo := newStubAdvRepo()
	adv := testAdvertiser()
	repo.add(adv)
	// No subscriptions: derived coverage equals the stored empty city coverage.

	svc := testAdvService(repo)
	coverage, err := svc.RefreshCoverage(context.Background(), adv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coverage.HasLive() {
		t.Error("no subscriptions must not yield live coverage")
	}
	if len(repo.coverageUpdates) != 0 {
		t.Error("unchanged coverage must not be rewritten")
	}
}

func TestRefreshCoveragePersistsDerivedUnion(t *testing.T) {
	repo := newStubAdvRepo()
	adv := testAdvertiser()
	repo.add(adv)
	repo.subscriptions[adv.ID] = []models.Subscription{
		citySub(enums.SubscriptionStatusActive, "jeddah"),
		kingdomSub(enums.SubscriptionStatusPaused),
	}

	svc := testAdvService(repo)
	coverage, err := svc.RefreshCoverage(context.Background(), adv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coverage.Scope != enums.CoverageScopeBoth {
		t.Errorf("scope = %s, want both", coverage.Scope)
	}
	saved, ok := repo.coverageUpdates[adv.ID]
	if !ok {
		t.Fatal("expected coverage update to be persisted")
	}
	if len(saved.Cities) != 1 || saved.Cities[0] != "jeddah" {
		t.Errorf("persisted cities = %v, want [jeddah]", saved.Cities)
	}
}

func TestRefreshAllCoverageCollectsFailuresAndContinues(t *testing.T) {
	repo := newStubAdvRepo()

	broken := testAdvertiser()
	repo.add(broken)
	repo.subsErrFor[broken.ID] = errors.New("connection reset")

	stale := testAdvertiser()
	stale.CoverageCities = []string{"riyadh"} // no live subscription backs it
	repo.add(stale)

	clean := testAdvertiser()
	repo.add(clean)

	svc := testAdvService(repo)
	checked, changed, err := svc.RefreshAllCoverage(context.Background())

	if checked != 2 {
		t.Errorf("checked = %d, want 2 (failed advertiser skipped)", checked)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1", changed)
	}
	if err == nil {
		t.Fatal("expected combined error for the failed advertiser")
	}
	if got := multierr.Errors(err); len(got) != 1 {
		t.Errorf("combined error carries %d entries, want 1: %v", len(got), got)
	}
	if _, ok := repo.coverageUpdates[stale.ID]; !ok {
		t.Error("sweep must still fix advertisers after a failure")
	}
}

func TestRefreshAllCoverageCleanSweepReturnsNil(t *testing.T) {
	repo := newStubAdvRepo()
	adv := testAdvertiser()
	repo.add(adv)
	repo.subscriptions[adv.ID] = nil

	svc := testAdvService(repo)
	checked, changed, err := svc.RefreshAllCoverage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checked != 1 || changed != 0 {
		t.Errorf("checked/changed = %d/%d, want 1/0", checked, changed)
	}
}
