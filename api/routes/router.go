package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rxpos/pharmacare-backend/api/controllers"
	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/internal/audit"
	"github.com/rxpos/pharmacare-backend/internal/auth"
	"github.com/rxpos/pharmacare-backend/internal/customers"
	"github.com/rxpos/pharmacare-backend/internal/expenses"
	"github.com/rxpos/pharmacare-backend/internal/medicines"
	"github.com/rxpos/pharmacare-backend/internal/pharmacies"
	"github.com/rxpos/pharmacare-backend/internal/sales"
	"github.com/rxpos/pharmacare-backend/internal/suppliers"
	"github.com/rxpos/pharmacare-backend/internal/users"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/metrics"
	"github.com/rxpos/pharmacare-backend/pkg/redis"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Database db.Pinger
	Redis    *redis.Client

	Users      middleware.UserSource
	Pharmacies middleware.PharmacySource

	Codec       *licensing.Codec
	Fingerprint middleware.Fingerprinter
	Metrics     *metrics.GateMetrics
	Registry    *prometheus.Registry

	AuthService     auth.Service
	PharmacyService pharmacies.Service
	UserService     users.Service
	MedicineService medicines.Service
	SaleService     sales.Service
	CustomerService customers.Service
	SupplierService suppliers.Service
	ExpenseService  expenses.Service
	AuditService    audit.Service
}

// New assembles the full HTTP surface: health and metrics outside the gate,
// then /api behind RequestID > Logging > Recoverer > CORS > License, with
// per-group Auth and role checks.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger, deps.Metrics))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.Database, redisPinger(deps.Redis), deps.Logger))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.License(
			deps.Config.JWT,
			deps.Pharmacies,
			deps.Codec,
			deps.Fingerprint,
			time.Now,
			deps.Metrics,
			deps.Logger,
		))

		// bypass paths: reachable on a locked install
		api.Group(func(open chi.Router) {
			if deps.Redis != nil {
				rl := deps.Config.AuthRateLimit
				policy := middleware.NewAuthRateLimitPolicy("login", rl.LoginWindow, rl.LoginIPLimit, rl.LoginEmailLimit)
				open.Use(middleware.AuthRateLimit(policy, deps.Redis, deps.Logger))
			}
			open.Post("/auth/login", controllers.AuthLogin(deps.AuthService, deps.Metrics, deps.Logger))
		})
		api.Get("/pharmacy/machine-id", controllers.PharmacyMachineID(deps.PharmacyService, deps.Logger))
		api.Post("/pharmacy/license/activate", controllers.PharmacyLicenseActivate(deps.PharmacyService, deps.Metrics, deps.Logger))

		// authenticated staff surface
		api.Group(func(authed chi.Router) {
			authed.Use(middleware.Auth(deps.Config.JWT, deps.Users, deps.Logger))

			authed.Post("/auth/change-password", controllers.AuthChangePassword(deps.AuthService, deps.Logger))
			authed.Get("/pharmacy/license", controllers.PharmacyLicenseStatus(deps.PharmacyService, deps.Logger))

			authed.Route("/medicines", func(m chi.Router) {
				m.Get("/", controllers.MedicineList(deps.MedicineService, deps.Logger))
				m.Post("/", controllers.MedicineCreate(deps.MedicineService, deps.Logger))
				m.Get("/low-stock", controllers.MedicineLowStock(deps.MedicineService, deps.Logger))
				m.Get("/expiring", controllers.MedicineExpiringBatches(deps.MedicineService, deps.Logger))
				m.Get("/{id}", controllers.MedicineGet(deps.MedicineService, deps.Logger))
				m.Put("/{id}", controllers.MedicineUpdate(deps.MedicineService, deps.Logger))
				m.Delete("/{id}", controllers.MedicineDelete(deps.MedicineService, deps.Logger))
				m.Post("/{id}/batches", controllers.MedicineReceiveBatch(deps.MedicineService, deps.Logger))
			})

			authed.Route("/sales", func(s chi.Router) {
				s.Get("/", controllers.SaleList(deps.SaleService, deps.Logger))
				s.Post("/", controllers.SaleCreate(deps.SaleService, deps.Logger))
				s.Get("/{id}", controllers.SaleGet(deps.SaleService, deps.Logger))
			})

			authed.Route("/customers", func(c chi.Router) {
				c.Get("/", controllers.CustomerList(deps.CustomerService, deps.Logger))
				c.Post("/", controllers.CustomerCreate(deps.CustomerService, deps.Logger))
				c.Get("/{id}", controllers.CustomerGet(deps.CustomerService, deps.Logger))
				c.Put("/{id}", controllers.CustomerUpdate(deps.CustomerService, deps.Logger))
				c.Delete("/{id}", controllers.CustomerDelete(deps.CustomerService, deps.Logger))
			})

			authed.Route("/suppliers", func(s chi.Router) {
				s.Get("/", controllers.SupplierList(deps.SupplierService, deps.Logger))
				s.Post("/", controllers.SupplierCreate(deps.SupplierService, deps.Logger))
				s.Put("/{id}", controllers.SupplierUpdate(deps.SupplierService, deps.Logger))
				s.Delete("/{id}", controllers.SupplierDelete(deps.SupplierService, deps.Logger))
			})

			authed.Route("/expenses", func(e chi.Router) {
				e.Get("/", controllers.ExpenseList(deps.ExpenseService, deps.Logger))
				e.Post("/", controllers.ExpenseCreate(deps.ExpenseService, deps.Logger))
				e.Delete("/{id}", controllers.ExpenseDelete(deps.ExpenseService, deps.Logger))
			})

			authed.Group(func(adminRead chi.Router) {
				adminRead.Use(middleware.RequireRole(deps.Logger, string(enums.UserRoleSuperAdmin), string(enums.UserRoleAdmin)))
				adminRead.Get("/audit-logs", controllers.AuditLogList(deps.AuditService, deps.Logger))
			})

			// operator-only tenant management
			authed.Route("/admin", func(admin chi.Router) {
				admin.Use(middleware.RequireRole(deps.Logger, string(enums.UserRoleSuperAdmin)))

				admin.Get("/pharmacies", controllers.AdminPharmacyList(deps.PharmacyService, deps.Logger))
				admin.Post("/pharmacies", controllers.AdminPharmacyOnboard(deps.PharmacyService, deps.Logger))
				admin.Post("/pharmacies/{id}/renew", controllers.AdminPharmacyRenew(deps.PharmacyService, deps.Logger))
				admin.Post("/pharmacies/{id}/suspend", controllers.AdminPharmacySuspend(deps.PharmacyService, deps.Logger))
				admin.Post("/pharmacies/{id}/unsuspend", controllers.AdminPharmacyUnsuspend(deps.PharmacyService, deps.Logger))

				admin.Get("/users", controllers.AdminUserList(deps.UserService, deps.Logger))
				admin.Post("/users", controllers.AdminUserCreate(deps.UserService, deps.Logger))
				admin.Post("/users/{id}/reset-credentials", controllers.AdminUserResetCredentials(deps.UserService, deps.Logger))
			})
		})
	})

	return r
}

// redisPinger avoids handing a typed nil to the health check.
func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
