// Server runs the REST API and the gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	accountrepo "teamhub/backend/internal/account/repository"
	"teamhub/backend/internal/audit"
	audithandler "teamhub/backend/internal/audit/handler"
	auditrepo "teamhub/backend/internal/audit/repository"
	authhandler "teamhub/backend/internal/auth/handler"
	authservice "teamhub/backend/internal/auth/service"
	"teamhub/backend/internal/bootstrap"
	"teamhub/backend/internal/config"
	healthhandler "teamhub/backend/internal/health/handler"
	"teamhub/backend/internal/logger"
	membershiprepo "teamhub/backend/internal/membership/repository"
	"teamhub/backend/internal/oauth"
	"teamhub/backend/internal/platform/rbac"
	"teamhub/backend/internal/policy/engine"
	projecthandler "teamhub/backend/internal/project/handler"
	projectrepo "teamhub/backend/internal/project/repository"
	projectservice "teamhub/backend/internal/project/service"
	"teamhub/backend/internal/provisioning"
	rolerepo "teamhub/backend/internal/role/repository"
	"teamhub/backend/internal/security"
	"teamhub/backend/internal/server"
	"teamhub/backend/internal/server/middleware"
	taskhandler "teamhub/backend/internal/task/handler"
	taskrepo "teamhub/backend/internal/task/repository"
	taskservice "teamhub/backend/internal/task/service"
	"teamhub/backend/internal/telemetry"
	telemetryotel "teamhub/backend/internal/telemetry/otel"
	"teamhub/backend/internal/telemetry/producer"
	userrepo "teamhub/backend/internal/user/repository"
	workspacehandler "teamhub/backend/internal/workspace/handler"
	workspacerepo "teamhub/backend/internal/workspace/repository"
	workspaceservice "teamhub/backend/internal/workspace/service"
)

const (
	serviceName     = "teamhub-api"
	shutdownTimeout = 15 * time.Second
	healthInterval  = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("config", zap.Error(err))
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, ServiceName: serviceName})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("server", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer shutdown("otel", providers.Shutdown)

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown("store", store.Close)

	cacheClient, err := bootstrap.OpenCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cacheClient.Close() }()

	signer, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
	if err != nil {
		return err
	}
	if cfg.JWTPrivateKey == "" {
		log.Warn("JWT keys not configured; using an ephemeral key pair")
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	policy, err := engine.LoadPolicyFile(cfg.AuthzPolicyFile)
	if err != nil {
		return err
	}
	evaluator, err := engine.NewOPAEvaluator(ctx, policy)
	if err != nil {
		return err
	}

	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.EventsKafkaTopic); kp != nil {
		emitters = append(emitters, kp)
		defer func() { _ = kp.Close() }()
		log.Info("kafka event producer enabled", zap.String("topic", cfg.EventsKafkaTopic))
	}
	emitter := telemetry.Multi(emitters...)

	sess := store.Session()
	coord := provisioning.NewCoordinator(store)
	workflow := provisioning.NewWorkflow(coord, hasher)
	members := membershiprepo.New(sess)
	authz := rbac.New(members, rolerepo.New(sess), evaluator)
	audits := auditrepo.New(sess)

	authSvc := authservice.NewService(accountrepo.New(sess), userrepo.New(sess), workflow, hasher, tokens, cacheClient, emitter)
	workspaceSvc := workspaceservice.NewService(workspaceservice.Deps{
		Creator:    workflow,
		Runner:     coord,
		Authz:      authz,
		Workspaces: workspacerepo.New(sess),
		Members:    members,
		Roles:      rolerepo.New(sess),
		Users:      userrepo.New(sess),
		Emitter:    emitter,
	})
	projectSvc := projectservice.NewService(authz, coord, projectrepo.New(sess))
	taskSvc := taskservice.NewService(authz, taskrepo.New(sess), projectrepo.New(sess), members)

	var google authhandler.OAuthProvider
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, cacheClient)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewMetrics(reg)
	if err != nil {
		return err
	}

	health := healthhandler.NewServer(store, evaluator)
	router := server.NewRouter(server.RouterDeps{
		BasePath:    cfg.BasePath,
		CookieName:  cfg.SessionCookieName,
		CORSOrigins: []string{cfg.FrontendOrigin},
		Authn:       authSvc,
		Audit:       audit.NewLogger(audits, audit.ClientIPFromContext),
		Metrics:     metrics,
		Health:      health,
		Auth: authhandler.New(authSvc, google, authhandler.Options{
			CookieName:     cfg.SessionCookieName,
			SecureCookie:   cfg.IsProduction(),
			FrontendOrigin: cfg.FrontendOrigin,
			FailureURL:     cfg.FrontendGoogleCallbackURL,
		}),
		Protected: []server.Registrar{
			workspacehandler.New(workspaceSvc),
			projecthandler.New(projectSvc),
			taskhandler.New(taskSvc),
			audithandler.New(authz, audits),
		},
	})

	go health.Run(ctx, healthInterval)

	errCh := make(chan error, 2)
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("base_path", cfg.BasePath))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	grpcSrv := server.NewGRPCServer(health.GRPC())
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			log.Info("grpc health server listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	grpcSrv.GracefulStop()
	return httpSrv.Shutdown(shutdownCtx)
}

func shutdown(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.L().Warn("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
