package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/shestoi/railbook/internal/api/http"
	"github.com/shestoi/railbook/internal/client/payment"
	"github.com/shestoi/railbook/internal/config"
	eventkafka "github.com/shestoi/railbook/internal/event/kafka"
	"github.com/shestoi/railbook/internal/iam"
	"github.com/shestoi/railbook/internal/notification"
	"github.com/shestoi/railbook/internal/service"
	"github.com/shestoi/railbook/internal/worker"
	platformlogging "github.com/shestoi/railbook/platform/logging"
	platformobservability "github.com/shestoi/railbook/platform/observability"
	platformshutdown "github.com/shestoi/railbook/platform/shutdown"
)

const serviceName = "booking"

// App holds everything needed to run the booking service and shut it down gracefully.
type App struct {
	logger      *zap.Logger
	httpServer  *http.Server
	shutdownMgr *platformshutdown.Manager
	queue       *notification.Queue
	consumer    *eventkafka.NotificationConsumer
	reminders   *worker.ReminderWorker
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Build wires the dependency graph for cfg.
func Build(cfg config.Config) (*App, error) {
	logger, err := platformlogging.New(platformlogging.Config{
		ServiceName: serviceName,
		Env:         string(cfg.AppEnv),
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}
	cfg.Log(logger)

	otelShutdown, err := platformobservability.Init(context.Background(), platformobservability.Config{
		Enabled:               cfg.OTelEnabled,
		OTLPEndpoint:          cfg.OTelEndpoint,
		SamplingRatio:         cfg.OTelSamplingRatio,
		ServiceName:           serviceName,
		DeploymentEnvironment: string(cfg.AppEnv),
	})
	if err != nil {
		return nil, err
	}

	shutdownMgr := platformshutdown.New(cfg.ShutdownTimeout, logger)
	// otel goes first so it is flushed last.
	shutdownMgr.Add("otel", otelShutdown)

	st := memoryStores()
	if cfg.Storage == config.StoragePersistent {
		st, err = persistentStores(context.Background(), cfg, logger, shutdownMgr)
		if err != nil {
			shutdownMgr.Shutdown()
			return nil, err
		}
	}

	users := iam.NewService(logger, st.users, st.sessions, cfg.SessionTTL)
	if cfg.AdminEmail != "" {
		if err := users.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
			shutdownMgr.Shutdown()
			return nil, err
		}
	}

	renderer, err := notification.NewRenderer(cfg.FrontendURL)
	if err != nil {
		shutdownMgr.Shutdown()
		return nil, err
	}
	var sender notification.Sender = notification.NewNoOpSender(logger)
	if cfg.SMTPEnabled {
		sender = notification.NewSMTPSender(logger, notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	notifications := notification.NewService(logger, st.notifications, st.users, sender, renderer)

	a := &App{logger: logger, shutdownMgr: shutdownMgr}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	var notifier service.Notifier
	switch cfg.NotificationTransport {
	case config.TransportKafka:
		publisher := eventkafka.NewNotificationPublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
		dlq := eventkafka.NewDLQPublisher(logger, cfg.Kafka.Brokers, cfg.Kafka.DLQTopic)
		a.consumer = eventkafka.NewNotificationConsumer(
			logger,
			cfg.Kafka.Brokers,
			cfg.Kafka.GroupID,
			cfg.Kafka.NotificationTopic,
			notifications,
			dlq,
			cfg.Kafka.RetryMaxAttempts,
			cfg.Kafka.RetryBackoffBase,
		)
		shutdownMgr.Add("kafka_dlq_publisher", platformshutdown.CloseCloser(dlq))
		shutdownMgr.Add("kafka_consumer", platformshutdown.CloseCloser(a.consumer))
		shutdownMgr.Add("kafka_publisher", platformshutdown.CloseCloser(publisher))
		notifier = publisher
	default:
		a.queue = notification.NewQueue(logger, notifications, 256, cfg.Kafka.RetryMaxAttempts, cfg.Kafka.RetryBackoffBase)
		shutdownMgr.Add("notification_queue", a.queue.Close)
		notifier = a.queue
	}

	var gateway service.PaymentGateway
	if cfg.PaymentProvider == config.PaymentProviderPaystack {
		gateway = payment.NewPaystackGateway(logger, payment.PaystackConfig{
			SecretKey:   cfg.PaystackSecretKey,
			BaseURL:     cfg.PaystackBaseURL,
			FrontendURL: cfg.FrontendURL,
			HTTPTimeout: cfg.PaymentTimeout,
		})
	} else {
		logger.Warn("using sandbox payment gateway, payments always succeed")
		gateway = payment.NewSandboxGateway(logger, cfg.FrontendURL)
	}
	gateway = payment.NewRetryingGateway(gateway, logger, cfg.PaymentRetryMaxAttempts, cfg.PaymentRetryBackoff)

	var metrics service.MetricsRecorder
	if cfg.OTelEnabled {
		metrics = newBookingMetricsRecorder()
	}

	trains := service.NewTrainService(st.trains, logger)
	bookings := service.NewBookingService(st.trains, st.bookings, gateway, notifier, metrics, logger, service.Options{
		PaymentTimeout:     cfg.PaymentTimeout,
		NotifyTimeout:      cfg.NotifyTimeout,
		CancellationWindow: cfg.CancellationWindow,
	})
	shutdownMgr.Add("booking_notifications", bookings.Drain)

	a.reminders = worker.NewReminderWorker(logger, st.trains, st.bookings, notifier, st.processed, cfg.ReminderInterval, cfg.ReminderLeadTime)
	shutdownMgr.Add("background_workers", func(ctx context.Context) error {
		a.cancel()
		return nil
	})

	handler := httpapi.NewHandler(users, trains, bookings, notifications, logger)
	router := httpapi.NewRouter(handler, users, st.checks, logger)
	a.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	shutdownMgr.Add("http_server", platformshutdown.ShutdownHTTPServer(a.httpServer))

	return a, nil
}

// Run serves HTTP and runs the background workers until a shutdown signal arrives.
func (a *App) Run() error {
	defer platformlogging.Sync(a.logger)

	a.logger.Info("starting booking service", zap.String("addr", a.httpServer.Addr))

	if a.queue != nil {
		a.queue.Start()
	}
	if a.consumer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.consumer.Start(a.ctx); err != nil {
				a.logger.Error("kafka consumer error", zap.Error(err))
			}
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.reminders.Start(a.ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	a.shutdownMgr.Wait()
	a.cancel()
	a.wg.Wait()

	a.logger.Info("booking service stopped")
	return nil
}
