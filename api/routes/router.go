package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adsjeddah/ads-sub002/api/controllers"
	"github.com/adsjeddah/ads-sub002/api/middleware"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
	pkgredis "github.com/adsjeddah/ads-sub002/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Admins        controllers.LoginService
	Directory     controllers.DirectoryService
	AdRequests    controllers.AdRequestService
	Advertisers   controllers.AdvertiserService
	Plans         controllers.PlanService
	Subscriptions controllers.SubscriptionService
	Payments      controllers.PaymentService
	Invoices      controllers.InvoiceService
	Reconcile     controllers.ReconcileService
}

// Dependencies carries the infrastructure handles for health checks and
// the idempotency guard.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/directory/{city}", controllers.DirectoryByCity(svcs.Directory, logg))
		r.Get("/plans", controllers.PublicPlans(svcs.Directory, logg))
		r.With(middleware.Idempotency(deps.Idempotency, logg)).
			Post("/ad-requests", controllers.AdRequestSubmit(svcs.AdRequests, logg))
	})

	r.Post("/api/admin/v1/auth/login", controllers.AdminAuthLogin(svcs.Admins, logg))

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/advertisers", func(r chi.Router) {
			r.Post("/", controllers.AdvertiserCreate(svcs.Advertisers, logg))
			r.Get("/", controllers.AdvertiserList(svcs.Advertisers, logg))
			r.Get("/{advertiserId}", controllers.AdvertiserDetail(svcs.Advertisers, logg))
			r.Patch("/{advertiserId}", controllers.AdvertiserUpdate(svcs.Advertisers, logg))
			r.Get("/{advertiserId}/subscriptions", controllers.SubscriptionsByAdvertiser(svcs.Subscriptions, logg))
			r.Post("/{advertiserId}/refresh-coverage", controllers.AdvertiserRefreshCoverage(svcs.Advertisers, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", controllers.PlanCreate(svcs.Plans, logg))
			r.Get("/", controllers.PlanList(svcs.Plans, logg))
			r.Get("/{planId}", controllers.PlanDetail(svcs.Plans, logg))
			r.Patch("/{planId}", controllers.PlanUpdate(svcs.Plans, logg))
			r.Delete("/{planId}", controllers.PlanDeactivate(svcs.Plans, logg))
		})

		r.Route("/ad-requests", func(r chi.Router) {
			r.Get("/", controllers.AdRequestList(svcs.AdRequests, logg))
			r.Get("/{requestId}", controllers.AdRequestDetail(svcs.AdRequests, logg))
			r.Post("/{requestId}/approve", controllers.AdRequestApprove(svcs.AdRequests, logg))
			r.Post("/{requestId}/reject", controllers.AdRequestReject(svcs.AdRequests, logg))
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", controllers.SubscriptionCreate(svcs.Subscriptions, logg))
			r.Get("/{subscriptionId}", controllers.SubscriptionDetail(svcs.Subscriptions, logg))
			r.Post("/{subscriptionId}/renew", controllers.SubscriptionRenew(svcs.Subscriptions, logg))
			r.Post("/{subscriptionId}/adjust-discount", controllers.SubscriptionAdjustDiscount(svcs.Subscriptions, logg))
			r.Post("/{subscriptionId}/activate", controllers.SubscriptionActivate(svcs.Subscriptions, logg))
			r.Post("/{subscriptionId}/cancel", controllers.SubscriptionCancel(svcs.Subscriptions, logg))
			r.Post("/{subscriptionId}/reconcile", controllers.ReconcileSubscription(svcs.Reconcile, logg))
			r.Get("/{subscriptionId}/payments", controllers.PaymentsBySubscription(svcs.Payments, logg))
			r.Get("/{subscriptionId}/invoices", controllers.InvoicesBySubscription(svcs.Invoices, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.PaymentRecord(svcs.Payments, logg))
			r.Delete("/{paymentId}", controllers.PaymentDelete(svcs.Payments, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svcs.Invoices, logg))
			r.Get("/{invoiceId}", controllers.InvoiceDetail(svcs.Invoices, logg))
			r.Post("/{invoiceId}/cancel", controllers.InvoiceCancel(svcs.Invoices, logg))
		})

		r.Post("/reconcile", controllers.ReconcileRun(svcs.Reconcile, logg))
	})

	return r
}
