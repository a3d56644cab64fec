package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/adsjeddah/ads-sub002/api/responses"
	"github.com/adsjeddah/ads-sub002/api/validators"
	"github.com/adsjeddah/ads-sub002/internal/admins"
	pkgerrors "github.com/adsjeddah/ads-sub002/pkg/errors"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// LoginService is the admin authentication surface the login endpoint needs.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*admins.LoginResult, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	AdminID   string `json:"admin_id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

// AdminAuthLogin wires the back-office login endpoint.
func AdminAuthLogin(svc LoginService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			Token:     result.Token,
			AdminID:   result.AdminID.String(),
			Email:     result.Email,
			ExpiresAt: result.ExpiresAt.Format(time.RFC3339),
		})
	}
}
