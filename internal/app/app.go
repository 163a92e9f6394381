package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "smartcharger/libs/db"
	libredis "smartcharger/libs/redis"

	"smartcharger/internal/config"
	httpserver "smartcharger/internal/http"
	"smartcharger/internal/http/handlers"
	"smartcharger/internal/lock"
	"smartcharger/internal/repository"
	"smartcharger/internal/service"
	"smartcharger/internal/sweeper"
)

// App wires the service dependency graph.
type App struct {
	server      *httpserver.Server
	sweepers    *sweeper.Runner
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgres(cfg.Database.DSN, libdb.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	pileRepo := repository.NewPileRepository(sqlDB)
	reservationRepo := repository.NewReservationRepository(sqlDB)
	recordRepo := repository.NewRecordRepository(sqlDB)
	priceRepo := repository.NewPriceRepository(sqlDB)
	noticeRepo := repository.NewNoticeRepository(sqlDB)
	vehicleRepo := repository.NewVehicleRepository(sqlDB)
	settingsRepo := repository.NewSystemConfigRepository(sqlDB)

	locker := lock.NewRedis(redisClient, logger)

	priceSvc := service.NewPriceService(priceRepo, logger)
	pileSvc := service.NewPileService(pileRepo, logger)
	reservationSvc := service.NewReservationService(
		reservationRepo, pileRepo, locker, logger,
		cfg.LockWait(), cfg.LockHold(), cfg.ReservationHold(),
	)
	chargingSvc := service.NewChargingService(
		recordRepo, reservationRepo, pileRepo, vehicleRepo, priceSvc, locker, logger,
		cfg.LockWait(), cfg.LockHold(), cfg.ReservationGrace(),
	)
	noticeSvc := service.NewNoticeService(noticeRepo, settingsRepo, logger, cfg.Overtime.DefaultThresholdMinutes)

	expirySweep := sweeper.NewExpirySweeper(reservationRepo, pileRepo, logger)
	overtimeSweep := sweeper.NewOvertimeSweeper(recordRepo, pileRepo, noticeSvc, logger)
	sweepers, err := sweeper.NewRunner(expirySweep, overtimeSweep,
		cfg.Reservation.ExpirySchedule, cfg.Overtime.Schedule, logger)
	if err != nil {
		redisClient.Close()
		sqlDB.Close()
		return nil, err
	}

	router := httpserver.NewRouter(httpserver.Handlers{
		Reservations: handlers.NewReservationHandlers(reservationSvc, cfg.ReservationHold()),
		Charging:     handlers.NewChargingHandlers(chargingSvc),
		Prices:       handlers.NewPriceHandlers(priceSvc),
		Piles:        handlers.NewPileHandlers(pileSvc),
		Notices:      handlers.NewNoticeHandlers(noticeSvc),
		Health:       handlers.NewHealthHandler(),
	}, cfg.Auth.JWTSecret)

	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		sweepers:    sweepers,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the sweepers and the HTTP server, blocking until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.sweepers.Start()
	defer a.sweepers.Stop()
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
