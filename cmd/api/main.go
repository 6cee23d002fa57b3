package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/njprem/storefront-favorites/internal/config"
	"github.com/njprem/storefront-favorites/internal/logging"
	"github.com/njprem/storefront-favorites/internal/metrics"
	storage "github.com/njprem/storefront-favorites/internal/repository/minio"
	"github.com/njprem/storefront-favorites/internal/repository/ports"
	"github.com/njprem/storefront-favorites/internal/repository/postgres"
	repotracing "github.com/njprem/storefront-favorites/internal/repository/tracing"
	"github.com/njprem/storefront-favorites/internal/service"
	"github.com/njprem/storefront-favorites/internal/tracing"
	transport "github.com/njprem/storefront-favorites/internal/transport/http"
	"github.com/njprem/storefront-favorites/internal/util"
)

func main() {
	cfg := config.Load()

	var extra []io.Writer
	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(logging.LogstashConfig{Addr: cfg.LogstashTCPAddr})
		if err != nil {
			logging.Logger.Warn().Err(err).Msg("logstash writer disabled")
		} else {
			defer writer.Close()
			extra = append(extra, writer)
		}
	}
	logging.Init(cfg.ServiceName, cfg.Development(), extra...)
	logging.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("init tracer")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	favoriteMetrics := metrics.NewFavorites(registry)

	users := repotracing.NewUserAPI(postgres.NewUserRepo(db))
	var products ports.ProductAPI = repotracing.NewProductAPI(postgres.NewProductRepo(db))
	if cfg.ImagesEnabled() {
		client, err := storage.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			logging.Logger.Fatal().Err(err).Msg("init minio client")
		}
		signer, err := storage.NewImageSigner(client, cfg.MinIOBucketProduct, cfg.MinIOPublicURL)
		if err != nil {
			logging.Logger.Fatal().Err(err).Msg("init image signer")
		}
		products = service.NewSignedProductAPI(products, signer, cfg.ProductImageURLTTL)
	}

	authService := service.NewAuthService(users, util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL),
		service.WithGoogleAudience(cfg.GoogleAudience),
	)

	e := transport.NewRouter(cfg.AllowOrigins, favoriteMetrics, registry)
	transport.RegisterSwagger(e, "")
	transport.RegisterAuth(e, authService)
	transport.RegisterFavorites(e, transport.FavoriteHandlerConfig{
		Auth:     authService,
		Users:    users,
		Products: products,
		Params:   service.NewParameters(cfg.DefaultPageSize, cfg.MaxPageSize),
		Classes:  service.FavoriteClasses{Favorite: cfg.FavoriteClass, NonFavorite: cfg.NonFavoriteClass},
		Metrics:  favoriteMetrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Info().Str("addr", srv.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	logging.Logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error().Err(err).Msg("http shutdown")
	}
}
