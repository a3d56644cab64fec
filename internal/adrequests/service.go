package adrequests

import (
	"context"

	"github.com/google/uuid"

	"github.com/adsjeddah/ads-sub002/internal/advertisers"
	"github.com/adsjeddah/ads-sub002/pkg/db/models"
	"github.com/adsjeddah/ads-sub002/pkg/enums"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// AdvertiserCreator registers the advertiser an approved request becomes.
type AdvertiserCreator interface {
	Create(ctx context.Context, input advertisers.CreateInput) (*models.Advertiser, error)
}

// SubmitInput is a prospective advertiser's public intake form.
type SubmitInput struct {
	CompanyName string
	ContactName string
	Phone       string
	Email       string
	Sector      enums.Sector
	City        string
	Notes       string
}

// Service owns the intake pipeline: public submission, admin triage.
type Service struct {
	repo        Repository
	advertisers AdvertiserCreator
	logg        *logger.Logger
}

// NewService wires the ad request service.
func NewService(repo Repository, advertisers AdvertiserCreator, logg *logger.Logger) *Service {
	return &Service{repo: repo, advertisers: advertisers, logg: logg}
}

// Submit records a public intake request as pending.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.AdRequest, error) {
	if input.CompanyName == "" || input.Phone == "" || input.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name, phone and city are required")
	}
	if !input.Sector.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown sector").
			WithDetails(map[string]any{"sector": input.Sector})
	}

	req := &models.AdRequest{
		ID:          uuid.New(),
		CompanyName: input.CompanyName,
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Email:       input.Email,
		Sector:      input.Sector,
		City:        input.City,
		Status:      enums.AdRequestStatusPending,
		Notes:       input.Notes,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating ad request")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"ad_request_id": req.ID.String(),
		"sector":        req.Sector.String(),
		"city":          req.City,
	}), "ad request submitted")
	return req, nil
}

// Get returns an ad request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AdRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading ad request")
	}
	if req == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ad request not found").
			WithDetails(map[string]any{"ad_request_id": id})
	}
	return req, nil
}

// List returns ad requests, newest first, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *enums.AdRequestStatus) ([]models.AdRequest, error) {
	reqs, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing ad requests")
	}
	return reqs, nil
}

// Approve accepts a pending request and creates the advertiser from it.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Advertiser, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != enums.AdRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ad request already triaged").
			WithDetails(map[string]any{"status": req.Status})
	}

	adv, err := s.advertisers.Create(ctx, advertisers.CreateInput{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Sector:      req.Sector,
	})
	if err != nil {
		return nil, err
	}

	req.Status = enums.AdRequestStatusApproved
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking ad request approved")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"ad_request_id": req.ID.String(),
		"advertiser_id": adv.ID.String(),
	}), "ad request approved")
	return adv, nil
}

// Reject declines a pending request with an optional triage note.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, notes string) (*models.AdRequest, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != enums.AdRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ad request already triaged").
			WithDetails(map[string]any{"status": req.Status})
	}

	req.Status = enums.AdRequestStatusRejected
	if notes != "" {
		req.Notes = notes
	}
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking ad request rejected")
	}

	s.logg.Info(s.logg.WithField(ctx, "ad_request_id", req.ID.String()), "ad request rejected")
	return req, nil
}
