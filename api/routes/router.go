package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stockpos-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/stockpos-backend/api/controllers/cart"
	"github.com/angelmondragon/stockpos-backend/api/middleware"
	"github.com/angelmondragon/stockpos-backend/internal/auth"
	"github.com/angelmondragon/stockpos-backend/internal/cart"
	"github.com/angelmondragon/stockpos-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/stockpos-backend/internal/checkout"
	"github.com/angelmondragon/stockpos-backend/internal/employees"
	"github.com/angelmondragon/stockpos-backend/internal/reports"
	"github.com/angelmondragon/stockpos-backend/internal/sales"
	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/metrics"
	"github.com/angelmondragon/stockpos-backend/pkg/redis"
)

// Services bundles everything the HTTP surface dispatches to.
type Services struct {
	Auth      auth.Service
	Catalog   catalog.Service
	Cart      cart.Service
	Checkout  checkoutsvc.Service
	Sales     sales.Service
	Reports   reports.Service
	Employees employees.Service
}

// Infra carries the shared clients used by middleware and probes.
type Infra struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimit   middleware.RateLimiterStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.ServerMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.Logging(logg),
	)

	perm := func(p enums.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(p, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessDeps(infra), logg))
	})
	r.Handle("/metrics", metrics.Handler(infra.Gatherer))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.HTTP), infra.RateLimit, logg)).
			Post("/auth/login", controllers.AuthLogin(svc.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/products", func(r chi.Router) {
				r.With(perm(enums.PermissionViewInventory)).Get("/", controllers.ProductList(svc.Catalog, logg))
				r.With(perm(enums.PermissionManageInventory)).Post("/", controllers.ProductCreate(svc.Catalog, logg))
				r.With(perm(enums.PermissionViewInventory)).Get("/lookup", controllers.ProductLookup(svc.Catalog, logg))
				r.With(perm(enums.PermissionViewInventory)).Get("/low-stock", controllers.ProductLowStock(svc.Catalog, logg))
				r.Route("/{productId}", func(r chi.Router) {
					r.With(perm(enums.PermissionViewInventory)).Get("/", controllers.ProductGet(svc.Catalog, logg))
					r.With(perm(enums.PermissionManageInventory)).Patch("/", controllers.ProductUpdate(svc.Catalog, logg))
					r.With(perm(enums.PermissionManageInventory)).Delete("/", controllers.ProductDelete(svc.Catalog, logg))
				})
			})

			r.Route("/categories", func(r chi.Router) {
				r.With(perm(enums.PermissionViewCategories)).Get("/", controllers.CategoryList(svc.Catalog, logg))
				r.With(perm(enums.PermissionManageCategories)).Post("/", controllers.CategoryCreate(svc.Catalog, logg))
				r.With(perm(enums.PermissionManageCategories)).Delete("/{categoryId}", controllers.CategoryDelete(svc.Catalog, logg))
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.With(perm(enums.PermissionViewSuppliers)).Get("/", controllers.SupplierList(svc.Catalog, logg))
				r.With(perm(enums.PermissionManageSuppliers)).Post("/", controllers.SupplierCreate(svc.Catalog, logg))
				r.With(perm(enums.PermissionManageSuppliers)).Delete("/{supplierId}", controllers.SupplierDelete(svc.Catalog, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Use(perm(enums.PermissionManagePOS))
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
				r.Put("/items/{productId}", cartcontrollers.CartSetQuantity(svc.Cart, logg))
				r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
			})

			r.With(
				perm(enums.PermissionManagePOS),
				middleware.Idempotency(infra.Idempotency, logg),
			).Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Route("/sales", func(r chi.Router) {
				r.Use(perm(enums.PermissionManagePOS))
				r.Get("/", controllers.SaleList(svc.Sales, logg))
				r.Get("/{saleId}", controllers.SaleGet(svc.Sales, logg))
				r.Get("/{saleId}/receipt", controllers.SaleReceipt(svc.Sales, logg))
			})

			r.Route("/reports", func(r chi.Router) {
				r.Use(perm(enums.PermissionViewReports))
				r.Get("/sales", controllers.ReportSales(svc.Reports, logg))
				r.Get("/inventory", controllers.ReportInventory(svc.Reports, logg))
				r.Get("/employees", controllers.ReportEmployees(svc.Reports, logg))
			})

			r.Route("/employees", func(r chi.Router) {
				r.Use(perm(enums.PermissionManageEmployees))
				r.Get("/", controllers.EmployeeList(svc.Employees, logg))
				r.Post("/", controllers.EmployeeCreate(svc.Employees, logg))
				r.Get("/{employeeId}", controllers.EmployeeGet(svc.Employees, logg))
				r.Delete("/{employeeId}", controllers.EmployeeDeactivate(svc.Employees, logg))
			})

			r.Route("/roles", func(r chi.Router) {
				r.Use(perm(enums.PermissionManageRoles))
				r.Get("/", controllers.RoleList(svc.Employees, logg))
				r.Post("/", controllers.RoleCreate(svc.Employees, logg))
				r.Get("/{roleId}", controllers.RoleGet(svc.Employees, logg))
				r.Put("/{roleId}", controllers.RoleUpdate(svc.Employees, logg))
				r.Delete("/{roleId}", controllers.RoleDelete(svc.Employees, logg))
			})
		})
	})

	return r
}

func readinessDeps(infra Infra) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if infra.DB != nil {
		deps["database"] = infra.DB
	}
	if infra.Redis != nil {
		deps["redis"] = infra.Redis
	}
	return deps
}
