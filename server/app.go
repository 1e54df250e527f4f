package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resido/config"
	"resido/internal/accesslog"
	"resido/internal/account"
	"resido/internal/auth"
	"resido/internal/db"
	"resido/internal/health"
	"resido/internal/locks"
	"resido/internal/logs"
	"resido/internal/middleware"
	"resido/internal/models"
	"resido/internal/notify"
	"resido/internal/repo"
	"resido/internal/ttlock"
	"resido/internal/webhook"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db     *gorm.DB
	ingest *accesslog.Ingestor
	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	// 1) Логи
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) БД
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		a.db = d
	}

	// ---- DB migrations (only if DB is connected) ----
	if a.db != nil {
		// 1) One-off rename of reserved columns (MySQL/MariaDB safe)
		if err := db.MigrateReservedColumns(a.db); err != nil {
			logs.Logger.Warnf("reserved columns migration: %v", err)
		}

		// 2) AutoMigrate all domain models
		if err := a.db.AutoMigrate(
			&models.User{},
			&models.UserParameter{},
			&models.SmartLock{},
			&models.AccessLog{},
			&models.AccessRefreshToken{},
		); err != nil {
			logs.Logger.Errorf("automigrate: %v", err)
		}
	}

	// 3) Роутер + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	// 4) Health
	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db) // /healthz и /readyz
	} else {
		health.RegisterRoutes(a.Router) // только /healthz
	}

	// без БД поднимаем только health: вебхуку и API писать некуда
	if a.db == nil {
		logs.Logger.Warn("no database configured, only health endpoints are served")
		return
	}

	// 5) Хранилища
	lockStore := repo.NewSmartLockStore(a.db)
	logStore := repo.NewAccessLogStore(a.db)
	userStore := repo.NewUserStore(a.db)
	tokenStore := repo.NewTokenStore(a.db)
	paramStore := repo.NewParamStore(a.db)

	// 6) Вендор и каналы доставки
	vendor := ttlock.New(ttlock.Config{
		BaseURL:      a.cfg.TTLock.BaseURL,
		ClientID:     a.cfg.TTLock.ClientID,
		ClientSecret: a.cfg.TTLock.ClientSecret,
		Timeout:      time.Duration(a.cfg.TTLock.TimeoutSeconds) * time.Second,
	})
	sms := notify.NewSmsGateway(a.cfg.SMS.URL, a.cfg.SMS.APIKey, a.cfg.SMS.Sender)
	mail := notify.NewSmtpMailer(a.cfg.SMTP.Host, a.cfg.SMTP.Port, a.cfg.SMTP.Username, a.cfg.SMTP.Password, a.cfg.SMTP.From)

	otp := auth.NewOtpService(paramStore, sms, mail,
		time.Duration(a.cfg.Otp.ResendSeconds)*time.Second,
		time.Duration(a.cfg.Otp.VerifyWindowMin)*time.Minute,
	)

	// 7) Вебхук вендора (без аутентификации, всегда 200)
	a.ingest = accesslog.NewIngestor(logStore)
	webhook.NewHTTP(lockStore, a.ingest).RegisterRoutes(a.Router)

	// 8) Клиентское API: сначала открытые ручки (точные пути), затем
	// токен-гейт на остальной /api
	accountHTTP := account.NewHTTP(userStore, tokenStore, paramStore, otp, vendor)
	accountHTTP.RegisterOpenRoutes(a.Router)

	authorized := a.Router.PathPrefix("/api").Subrouter()
	authorized.Use(auth.TokenAuthorize(tokenStore))

	accountHTTP.RegisterAuthorizedRoutes(authorized)
	locks.NewHTTP(lockStore, logStore, vendor).RegisterRoutes(authorized)

	a.Router.Walk(func(rt *mux.Route, r *mux.Router, ancestors []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:         bind,
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	if a.ingest != nil {
		// дождаться фоновых пачек вебхука перед выходом
		a.ingest.Wait()
	}
	return nil
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
