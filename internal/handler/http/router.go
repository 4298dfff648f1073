package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/auth"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/service"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/health"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/middleware"
)

const serviceName = "shop"

// Services are the application services behind the API routes.
type Services struct {
	Catalog *service.CatalogService
	Cart    *service.CartService
	Coupons *service.CouponService
	Orders  *service.OrderService
}

// Options carries the cross-cutting dependencies of the router.
type Options struct {
	// Tokens validates bearer tokens on user and admin routes.
	Tokens middleware.TokenValidator
	// Webhook guards the payment callbacks, typically webhook.Verify.
	Webhook func(http.Handler) http.Handler

	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all shop routes registered. ctx bounds
// the background work of the rate limiter.
func NewRouter(
	ctx context.Context,
	svc Services,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(opts.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, opts.PprofCIDRs, logger)

	productHandler := NewProductHandler(svc.Catalog, logger)
	cartHandler := NewCartHandler(svc.Cart, logger)
	couponHandler := NewCouponHandler(svc.Coupons, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)
	paymentHandler := NewPaymentHandler(svc.Orders, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, opts.RateLimitRPS, opts.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)

		// Public catalog
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{id}", productHandler.GetProduct)
		})

		// Payment gateway callbacks
		r.Route("/payment", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(opts.Webhook)
			r.Post("/success", paymentHandler.PaymentSuccess)
			r.Post("/fail", paymentHandler.PaymentFail)
		})

		// Authenticated user routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.Auth(opts.Tokens))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{itemId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{itemId}", cartHandler.RemoveItem)
				r.Post("/apply-coupon", cartHandler.ApplyCoupon)
				r.Post("/remove-coupon", cartHandler.RemoveCoupon)
				r.Delete("/clear", cartHandler.ClearCart)
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/validate", couponHandler.ValidateCoupon)
				r.Get("/{id}", couponHandler.GetCoupon)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.CreateOrder)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{id}", orderHandler.GetOrder)
				r.Put("/{id}/cancel", orderHandler.CancelOrder)
				r.Post("/{id}/pay", orderHandler.InitiatePayment)
				r.Post("/{id}/return-request", orderHandler.RequestReturn)
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(auth.RoleAdmin))

				r.Get("/orders", orderHandler.AdminListOrders)
				r.Put("/orders/{id}/status", orderHandler.AdminUpdateStatus)
				r.Put("/orders/{id}/cancel", orderHandler.AdminApproveCancellation)

				r.Post("/coupons", couponHandler.CreateCoupon)
				r.Get("/coupons", couponHandler.ListCoupons)
				r.Put("/coupons/{id}", couponHandler.UpdateCoupon)
				r.Delete("/coupons/{id}", couponHandler.DeleteCoupon)

				r.Post("/products", productHandler.CreateProduct)
			})
		})
	})

	return r
}
