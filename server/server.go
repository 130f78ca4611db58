package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"gorm.io/gorm"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/relocrm/leadstack/api"
	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal"
	"github.com/relocrm/leadstack/internal/cron"
	"github.com/relocrm/leadstack/internal/listeners"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/services"
)

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	repositories *repository.Repositories
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, primaryDB, legacyDB *gorm.DB) (*Server, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatalf("Could not initialize jaeger tracer: %s", err.Error())
	}
	opentracing.SetGlobalTracer(tracer)

	// Initialize repositories
	repos := repository.InitRepositories(primaryDB, legacyDB)

	// Initialize services
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, err
	}

	cronManager := cron.NewCronManager(cfg, appLogger, kubernetesClient(appLogger), cron.Jobs{
		EmailSync:      svcs.EmailSyncService,
		AutoSync:       svcs.AutoSyncService,
		ShareTokens:    svcs.ShareTokenService,
		CustomerImport: svcs.CustomerImportService,
	})

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	return &Server{
		config:       cfg,
		log:          appLogger,
		router:       router,
		services:     svcs,
		repositories: repos,
		cronManager:  cronManager,
		tracerCloser: closer,
		httpServer: &http.Server{
			Addr:              ":" + cfg.AppConfig.APIPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// kubernetesClient returns nil outside a cluster; the cron manager then runs without leader election.
func kubernetesClient(log logger.Logger) kubernetes.Interface {
	restConfig, err := rest.InClusterConfig()
	if err != nil {
		log.Infof("Not running in kubernetes: %v", err)
		return nil
	}
	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		log.Warnf("Could not create kubernetes client: %v", err)
		return nil
	}
	return client
}

func (s *Server) Initialize(ctx context.Context) error {
	if err := internal.InitMailbox(ctx, s.services, s.repositories, s.log); err != nil {
		// the mailbox may come back later; scheduled syncs retry on their own
		s.log.Warnf("Mailbox not ready: %v", err)
	}

	if err := s.registerListeners(); err != nil {
		return err
	}

	if s.services.AutoSyncService.Enabled(ctx) {
		if err := s.services.AutoSyncService.Start(ctx, 0); err != nil {
			s.log.Errorf("Could not resume auto-sync: %v", err)
		}
	}

	api.RegisterRoutes(s.router, s.services, s.repositories, api.RouteConfig{
		APIKey:           s.config.AppConfig.APIKey,
		MailboxID:        s.config.MailboxConfig.MailboxID,
		DefaultSyncLimit: s.config.MailboxConfig.DefaultSyncLimit,
	})

	return nil
}

func (s *Server) registerListeners() error {
	if s.services.EventsService == nil {
		s.log.Warn("RabbitMQ not configured, inbound emails are not parsed automatically")
		return nil
	}

	queued := []interfaces.EventListener{
		listeners.NewReceiveEmailListener(
			s.log,
			s.services.EmailParser,
			s.services.CustomerImportService,
			s.services.NotificationService,
			s.services.Publisher(),
			s.config.ImportConfig.AutoImport,
		),
	}
	fanout := []interfaces.EventListener{
		listeners.NewNotificationChangedListener(s.log, s.services.NotificationService),
	}
	return subscribe(s.services.EventsService.Subscriber, queued, fanout)
}

// subscribe registers the listeners and starts one consumer per queue. Fanout
// listeners use their exchange name as queue name.
func subscribe(subscriber interfaces.EventSubscriber, queued, fanout []interfaces.EventListener) error {
	started := make(map[string]bool)
	for _, listener := range append(queued, fanout...) {
		subscriber.RegisterListener(listener)
	}
	for _, listener := range queued {
		queue := listener.GetQueueName()
		if started[queue] {
			continue
		}
		if err := subscriber.ListenQueue(queue); err != nil {
			return err
		}
		started[queue] = true
	}
	for _, listener := range fanout {
		exchange := listener.GetQueueName()
		if started[exchange] {
			continue
		}
		if err := subscriber.ListenFanout(exchange); err != nil {
			return err
		}
		started[exchange] = true
	}
	return nil
}

func (s *Server) recoverWithJaeger(name string) {
	if r := recover(); r != nil {
		span := opentracing.GlobalTracer().StartSpan(
			fmt.Sprintf("panic.%s", name),
		)
		defer span.Finish()

		ext.Error.Set(span, true)

		span.LogKV(
			"event", "panic",
			"process", name,
			"error", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)

		s.log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

func (s *Server) wrapGoroutine(name string, fn func()) {
	defer s.recoverWithJaeger(name)
	fn()
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Initialize(ctx); err != nil {
		return err
	}

	podName := os.Getenv("POD_NAME")
	if podName == "" {
		podName = "local"
	}
	if err := s.cronManager.Start(podName, os.Getenv("NAMESPACE")); err != nil {
		return err
	}

	go s.wrapGoroutine("http_server", func() {
		s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("HTTP server error: %v", err)
		}
	})
	s.log.Info("Leadstack is now running. Press Ctrl+C to exit.")

	return s.waitForShutdown()
}

func (s *Server) waitForShutdown() error {
	defer s.recoverWithJaeger("shutdown")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	s.log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	} else {
		s.log.Info("HTTP server shut down successfully")
	}

	cronDone := make(chan struct{})
	go s.wrapGoroutine("cron_shutdown", func() {
		defer close(cronDone)
		s.cronManager.Stop()
	})
	select {
	case <-cronDone:
	case <-shutdownCtx.Done():
		s.log.Warn("Cron jobs still running, not waiting any longer")
	}

	s.services.Close()
	s.services.IMAPService.Close(shutdownCtx)

	if s.tracerCloser != nil {
		_ = s.tracerCloser.Close()
	}
	return nil
}
