package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/shiftloop/fulfillment-service/internal/app"
	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/controllers"
	"github.com/shiftloop/fulfillment-service/internal/middleware"
	"github.com/shiftloop/fulfillment-service/internal/routes"
	"github.com/shiftloop/fulfillment-service/internal/services"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

func main() {
	utils.InitLogger("fulfillment-service")
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize fulfillment-service:", err)
	}
	defer application.Close()

	repos := application.BuildRepositories()

	notifier := services.NewNotificationService(cfg, repos.Workers, repos.Venues, repos.Shifts)

	availService := services.NewAvailabilityService(repos.Availability, nil)
	shiftService := services.NewShiftService(
		cfg,
		repos.Shifts,
		repos.Applications,
		repos.CheckIns,
		repos.Venues,
		availService,
		notifier,
		nil,
	)
	appService := services.NewApplicationService(
		repos.Applications,
		repos.Shifts,
		repos.Workers,
		availService,
		notifier,
		nil,
	)
	matchService := services.NewMatchService(repos.Workers, repos.Shifts, repos.Applications, repos.Availability)
	attendanceService := services.NewAttendanceService(
		cfg,
		repos.CheckIns,
		repos.Applications,
		repos.Shifts,
		repos.Workers,
		notifier,
		nil,
	)
	maintenanceService := services.NewMaintenanceService(
		repos.Shifts,
		repos.Applications,
		repos.CheckIns,
		attendanceService,
		shiftService,
		nil,
	)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedTestData(context.Background(), repos); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		}
		utils.Logger.Info("Seeded test data successfully")
	}

	shiftsController := controllers.NewShiftsController(shiftService, matchService)
	applicationsController := controllers.NewApplicationsController(appService)
	availabilityController := controllers.NewAvailabilityController(availService)
	attendanceController := controllers.NewAttendanceController(attendanceService)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))

	// Worker-facing shift listing must register before the {id} routes so
	// mux does not treat "open" as a shift ID.
	secured.HandleFunc(routes.ShiftsOpen, shiftsController.ListOpenShiftsHandler).Methods(http.MethodGet)

	// Venue shift lifecycle
	venueOnly := middleware.RequireRole(middleware.RoleVenue)
	secured.Handle(routes.ShiftsBase, venueOnly(http.HandlerFunc(shiftsController.CreateShiftHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftPublish, venueOnly(http.HandlerFunc(shiftsController.PublishShiftHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftBegin, venueOnly(http.HandlerFunc(shiftsController.BeginShiftHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftComplete, venueOnly(http.HandlerFunc(shiftsController.CompleteShiftHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftCancel, venueOnly(http.HandlerFunc(shiftsController.CancelShiftHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftMatches, venueOnly(http.HandlerFunc(shiftsController.ListMatchesHandler))).Methods(http.MethodGet)
	secured.Handle(routes.ShiftsForVenue, venueOnly(http.HandlerFunc(shiftsController.ListVenueShiftsHandler))).Methods(http.MethodGet)
	secured.HandleFunc(routes.ShiftByID, shiftsController.GetShiftHandler).Methods(http.MethodGet)

	// Applications
	workerOnly := middleware.RequireRole(middleware.RoleWorker)
	secured.Handle(routes.ApplicationsBase, workerOnly(http.HandlerFunc(applicationsController.ApplyHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationsMy, workerOnly(http.HandlerFunc(applicationsController.ListMyApplicationsHandler))).Methods(http.MethodGet)
	secured.Handle(routes.ApplicationsForShift, venueOnly(http.HandlerFunc(applicationsController.ListShiftApplicationsHandler))).Methods(http.MethodGet)
	secured.Handle(routes.ApplicationAccept, workerOnly(http.HandlerFunc(applicationsController.AcceptHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationCounterAccept, venueOnly(http.HandlerFunc(applicationsController.CounterAcceptHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationCounterReject, venueOnly(http.HandlerFunc(applicationsController.CounterRejectHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationHire, venueOnly(http.HandlerFunc(applicationsController.HireHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationWithdraw, workerOnly(http.HandlerFunc(applicationsController.WithdrawHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ApplicationReject, venueOnly(http.HandlerFunc(applicationsController.RejectHandler))).Methods(http.MethodPost)

	// Availability ledger
	secured.Handle(routes.WorkerAvailability, workerOnly(http.HandlerFunc(availabilityController.SetAvailabilityHandler))).Methods(http.MethodPost)
	secured.Handle(routes.WorkerAvailability, workerOnly(http.HandlerFunc(availabilityController.ListAvailabilityHandler))).Methods(http.MethodGet)
	secured.Handle(routes.WorkerAvailabilityBulk, workerOnly(http.HandlerFunc(availabilityController.BulkSetHandler))).Methods(http.MethodPost)
	secured.Handle(routes.WorkerAvailabilityRecurring, workerOnly(http.HandlerFunc(availabilityController.RecurringPatternHandler))).Methods(http.MethodPost)

	// Attendance
	secured.Handle(routes.ShiftCheckIn, workerOnly(http.HandlerFunc(attendanceController.CheckInHandler))).Methods(http.MethodPost)
	secured.Handle(routes.ShiftCheckOut, workerOnly(http.HandlerFunc(attendanceController.CheckOutHandler))).Methods(http.MethodPost)
	secured.Handle(routes.AttendanceBreakStart, workerOnly(http.HandlerFunc(attendanceController.StartBreakHandler))).Methods(http.MethodPost)
	secured.Handle(routes.AttendanceBreakEnd, workerOnly(http.HandlerFunc(attendanceController.EndBreakHandler))).Methods(http.MethodPost)

	c := cron.New()
	_, sweepErr := c.AddFunc("@every 2m", func() {
		if e := maintenanceService.RunSweep(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Fulfillment maintenance sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule maintenance sweep cron")
	}
	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl, "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Platform", "X-Device-ID"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("fulfillment-service failed to start:", err)
	}
}
