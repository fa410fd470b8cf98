package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salonkit/reserve-core/internal/api/handlers"
	"github.com/salonkit/reserve-core/internal/api/middleware"
	"github.com/salonkit/reserve-core/internal/clock"
	"github.com/salonkit/reserve-core/internal/config"
	"github.com/salonkit/reserve-core/internal/notify"
	"github.com/salonkit/reserve-core/internal/repository"
	"github.com/salonkit/reserve-core/internal/service"
)

// NewRouter wires repositories, services and handlers onto one mux.
func NewRouter(db *sqlx.DB, cfg *config.Config) (http.Handler, error) {
	serviceRepo := repository.NewServiceRepo(db)
	calendarRepo := repository.NewCalendarRepo(db)
	appointmentRepo := repository.NewAppointmentRepo(db)
	couponRepo := repository.NewCouponRepo(db)
	saleRepo := repository.NewSaleRepo(db)

	clk := clock.System{}
	catalog := service.NewCatalog(serviceRepo)
	policy, err := service.NewCalendarPolicy(calendarRepo, &cfg.Salon)
	if err != nil {
		return nil, err
	}
	coupons := service.NewCouponService(couponRepo, clk)
	notifier := notify.NewLogNotifier()

	starter := service.NewTxStarter(db)
	availability := service.NewAvailabilityService(catalog, policy, appointmentRepo, clk, cfg.Salon.SlotGranularityMin)
	reservations := service.NewReservationService(starter, catalog, policy, appointmentRepo, coupons, notifier, clk)
	settlement := service.NewSettlementService(starter, catalog, coupons, couponRepo, saleRepo, appointmentRepo, cfg.Salon.TaxRatePercent, clk)

	availabilityHandler := handlers.NewAvailabilityHandler(availability)
	reservationHandler := handlers.NewReservationHandler(reservations)
	couponHandler := handlers.NewCouponHandler(db, coupons, couponRepo, catalog)
	saleHandler := handlers.NewSaleHandler(settlement)
	adminHandler := handlers.NewAdminHandler(serviceRepo, calendarRepo, availability)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.With(middleware.RateLimit(cfg.Server.ReadRPS, cfg.Server.ReadBurst)).
		Get("/availability", availabilityHandler.Get)

	r.Route("/reservations", func(r chi.Router) {
		r.Post("/", reservationHandler.Create)
		r.Get("/{id}", reservationHandler.Get)
		r.Patch("/{id}", reservationHandler.Update)
		r.Delete("/{id}", reservationHandler.Cancel)
		r.Post("/{id}/status", reservationHandler.SetStatus)
	})

	r.Post("/coupons/validate", couponHandler.Validate)

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", saleHandler.Settle)
		r.Get("/{id}", saleHandler.Get)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/coupons", couponHandler.CreateCoupon)
		r.Post("/services", adminHandler.CreateService)
		r.Post("/closures", adminHandler.CreateClosure)
		r.Post("/forced-open-days", adminHandler.CreateForcedOpenDay)
		r.Delete("/reservations/{id}", reservationHandler.Delete)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r, nil
}
