package main

import (
	availabilityhandler "carebook/internal/availability/handler"
	availabilityrepo "carebook/internal/availability/repository"
	availability "carebook/internal/availability/service"
	availabilityvalidator "carebook/internal/availability/validator"
	bookinghandler "carebook/internal/booking/handler"
	bookingrepo "carebook/internal/booking/repository"
	booking "carebook/internal/booking/service"
	bookingvalidator "carebook/internal/booking/validator"
	directoryhandler "carebook/internal/directory/handler"
	directoryrepo "carebook/internal/directory/repository"
	directory "carebook/internal/directory/service"
	directoryvalidator "carebook/internal/directory/validator"
	"carebook/internal/notify"
	"carebook/internal/payments"
	"carebook/pkg/app"
	"carebook/pkg/config"
	"carebook/pkg/contracts"
	"carebook/pkg/kafka"
	kafka_config "carebook/pkg/kafka/config"
	kafka_middleware "carebook/pkg/kafka/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "scheduler"

// schedulerHandler registers all route groups on one router.
type schedulerHandler struct {
	handlers []contracts.Handler
}

func (h *schedulerHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Scheduler service")

	notifier, producer := initNotifier(cfg)
	sweeper, appHandler := initServices(cfg, notifier)

	sweeper.Start()

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, appHandler)
	serverApp.AddWorker(sweeper)
	if producer != nil {
		defer func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}
	serverApp.Run()
}

func initNotifier(cfg *config.Config) (notify.Notifier, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Warn("Kafka disabled, events will not be published", "error", err)
		return notify.NewNoopNotifier(), nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AppointmentEventsTopic, cfg.AppointmentEventsTopic+".dlq")
	if err != nil {
		cfg.Log.Warn("Kafka disabled, events will not be published", "error", err)
		return notify.NewNoopNotifier(), nil
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	return notify.NewKafkaNotifier(producer, cfg.Log), producer
}

func initPayments(cfg *config.Config) payments.Provider {
	if cfg.StripeSecretKey == "" {
		cfg.Log.Warn("No Stripe key configured, payment holds are a no-op")
		return payments.NewNoopProvider()
	}
	return payments.NewStripeProvider(cfg.StripeSecretKey, cfg.Log)
}

func initServices(cfg *config.Config, notifier notify.Notifier) (*booking.CompletionSweeper, contracts.Handler) {
	windowRepo := availabilityrepo.NewMongoWindowRepository(cfg)
	holdRepo := availabilityrepo.NewMongoHoldRepository(cfg)
	windowValidator := availabilityvalidator.NewWindowValidator(cfg.Log)
	store := availability.NewAvailabilityStore(windowRepo, holdRepo, availability.NewKeyedLock(), windowValidator, cfg)

	caregiverRepo := directoryrepo.NewMongoCaregiverRepository(cfg)
	caregiverValidator := directoryvalidator.NewCaregiverValidator(cfg.Log)
	caregivers := directory.NewCaregiverService(caregiverRepo, caregiverValidator, cfg)

	appointmentRepo := bookingrepo.NewMongoAppointmentRepository(cfg)
	bookingValidator := bookingvalidator.NewBookingValidator(cfg.Log)
	bookingService := booking.NewBookingService(
		appointmentRepo,
		store,
		caregivers,
		initPayments(cfg),
		notifier,
		bookingValidator,
		cfg,
	)

	sweeper := booking.NewCompletionSweeper(appointmentRepo, store, notifier, cfg)

	appHandler := &schedulerHandler{handlers: []contracts.Handler{
		availabilityhandler.NewAvailabilityHandler(store, cfg.Log),
		directoryhandler.NewCaregiverHandler(caregivers, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	}}

	cfg.Log.Info("Scheduler services initialized", "database", cfg.MongoDatabaseName)

	return sweeper, appHandler
}
