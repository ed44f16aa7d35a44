package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/logitrack/logitrack-backend/api/controllers"
	"github.com/logitrack/logitrack-backend/api/middleware"
	"github.com/logitrack/logitrack-backend/internal/admins"
	"github.com/logitrack/logitrack-backend/internal/attempts"
	"github.com/logitrack/logitrack-backend/internal/bins"
	"github.com/logitrack/logitrack-backend/internal/bulk"
	"github.com/logitrack/logitrack-backend/internal/cod"
	"github.com/logitrack/logitrack-backend/internal/couriers"
	"github.com/logitrack/logitrack-backend/internal/dashboard"
	"github.com/logitrack/logitrack-backend/internal/logistics"
	"github.com/logitrack/logitrack-backend/internal/pickups"
	"github.com/logitrack/logitrack-backend/internal/runsheets"
	"github.com/logitrack/logitrack-backend/internal/shipments"
	"github.com/logitrack/logitrack-backend/pkg/config"
	"github.com/logitrack/logitrack-backend/pkg/db"
	"github.com/logitrack/logitrack-backend/pkg/logger"
	pkgredis "github.com/logitrack/logitrack-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis pkgredis.Pinger

	IdempotencyStore pkgredis.IdempotencyStore

	Admins    admins.Service
	Couriers  couriers.Service
	Bins      bins.Service
	Shipments shipments.Service
	Logistics logistics.Service
	RunSheets runsheets.Service
	Attempts  attempts.Service
	COD       cod.Service
	Pickups   pickups.Service
	Dashboard dashboard.Service
	Bulk      bulk.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(d.Admins, logg))
		r.Post("/register", controllers.AuthRegister(d.Admins, logg))
		r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(d.Admins, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

		r.Get("/dashboard/stats", controllers.DashboardStats(d.Dashboard, logg))

		// The field teams say champs, the ops dashboard says drivers.
		// Both names route to the same courier handlers.
		courierRoutes := func(r chi.Router) {
			r.Post("/", controllers.CourierCreate(d.Couriers, logg))
			r.Get("/", controllers.CourierList(d.Couriers, logg))
			r.Get("/{id}", controllers.CourierGet(d.Couriers, logg))
			r.Put("/{id}", controllers.CourierUpdate(d.Couriers, logg))
			r.Delete("/{id}", controllers.CourierDelete(d.Couriers, logg))
			r.Get("/{id}/stats", controllers.CourierStats(d.Couriers, logg))
		}
		r.Route("/champs", courierRoutes)
		r.Route("/drivers", courierRoutes)

		// Same dual vocabulary for staging slots: bins on the floor,
		// bin-locations in the dashboard.
		binRoutes := func(r chi.Router) {
			r.Post("/", controllers.BinCreate(d.Bins, logg))
			r.Get("/", controllers.BinList(d.Bins, logg))
			r.Get("/{id}", controllers.BinGet(d.Bins, logg))
			r.Put("/{id}", controllers.BinUpdate(d.Bins, logg))
			r.Delete("/{id}", controllers.BinDelete(d.Bins, logg))
		}
		r.Route("/bins", binRoutes)
		r.Route("/bin-locations", binRoutes)

		r.Route("/shipments", func(r chi.Router) {
			r.Post("/", controllers.ShipmentCreate(d.Shipments, logg))
			r.Get("/", controllers.ShipmentList(d.Shipments, logg))
			r.Post("/bulk", controllers.BulkUpload(d.Bulk, logg))
			r.Get("/bulk/template", controllers.BulkTemplate(d.Bulk, logg))
			r.Get("/track/{awb}", controllers.ShipmentTrack(d.Shipments, logg))
			r.Get("/{id}", controllers.ShipmentGet(d.Shipments, logg))
			r.Put("/{id}", controllers.ShipmentUpdate(d.Shipments, logg))
			r.Delete("/{id}", controllers.ShipmentDelete(d.Shipments, logg))
			r.Post("/{id}/reschedule", controllers.ShipmentReschedule(d.Shipments, logg))
			r.Post("/{id}/follow-ups", controllers.ShipmentFollowUpCreate(d.Shipments, logg))
			r.Get("/{id}/follow-ups", controllers.ShipmentFollowUpList(d.Shipments, logg))
			r.Post("/{id}/unassign", controllers.ShipmentUnassign(d.Logistics, logg))
			r.Post("/{id}/return", controllers.ShipmentReturn(d.Logistics, logg))
			r.Post("/{id}/mark-delivered", controllers.ShipmentMarkDelivered(d.Logistics, logg))
			r.Post("/{id}/pickup-completed", controllers.ShipmentPickupCompleted(d.Logistics, logg))
			r.Post("/{id}/attempts", controllers.AttemptRecord(d.Attempts, logg))
			r.Get("/{id}/attempts", controllers.AttemptList(d.Attempts, logg))
		})

		r.Route("/logistics", func(r chi.Router) {
			r.Post("/in-scan", controllers.LogisticsInScan(d.Logistics, logg))
			r.Post("/assign-bin", controllers.LogisticsAssignBin(d.Logistics, logg))
			r.Post("/assign-champ", controllers.LogisticsAssignChamp(d.Logistics, logg))
			r.Post("/return-to-warehouse", controllers.LogisticsReturnToWarehouse(d.Logistics, logg))
		})

		r.Route("/runsheets", func(r chi.Router) {
			r.Post("/", controllers.RunSheetCreate(d.RunSheets, logg))
			r.Get("/", controllers.RunSheetList(d.RunSheets, logg))
			r.Get("/{id}", controllers.RunSheetGet(d.RunSheets, logg))
			r.Post("/{id}/scan-out", controllers.RunSheetScanOut(d.RunSheets, logg))
			r.Post("/{id}/scan-in", controllers.RunSheetScanIn(d.RunSheets, logg))
		})

		r.Route("/cod", func(r chi.Router) {
			r.Get("/pending", controllers.CODPending(d.COD, logg))
			r.Post("/{shipmentId}/reconcile", controllers.CODReconcile(d.COD, logg))
		})

		r.Route("/pickups", func(r chi.Router) {
			r.Post("/", controllers.PickupCreate(d.Pickups, logg))
			r.Get("/", controllers.PickupList(d.Pickups, logg))
			r.Get("/{id}", controllers.PickupGet(d.Pickups, logg))
			r.Post("/{id}/assign", controllers.PickupAssign(d.Pickups, logg))
			r.Put("/{id}/items", controllers.PickupItemsUpdate(d.Pickups, logg))
			r.Post("/{id}/complete", controllers.PickupComplete(d.Pickups, logg))
			r.Post("/{id}/cancel", controllers.PickupCancel(d.Pickups, logg))
			r.Get("/{id}/history", controllers.PickupHistory(d.Pickups, logg))
		})
	})

	return r
}
