package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"kit-messenger/internal/config"
	"kit-messenger/internal/conversation"
	"kit-messenger/internal/db"
	"kit-messenger/internal/handlers"
	"kit-messenger/internal/identity"
	klog "kit-messenger/internal/log"
	"kit-messenger/internal/messaging"
	"kit-messenger/internal/middleware"
	"kit-messenger/internal/observability"
	"kit-messenger/internal/preferences"
	"kit-messenger/internal/rabbitmq"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
	"kit-messenger/internal/telemetry"
	"kit-messenger/internal/ws"
)

func main() {
	cfg := config.Load()
	klog.Init(cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	slot, closeSlot, err := openSlot(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer closeSlot()

	st := store.New(slot, cfg.DefaultLang)
	container := state.New(st, st.Load(ctx))

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	mode, reason := rabbitmq.ModeOf(publisher)
	log.Info().Str("mode", string(mode)).Str("reason", reason).Msg("publisher ready")
	auditor := telemetry.NewAuditEmitter(publisher, "kit.audit", "kit-messenger", cfg.Env)
	if mode == rabbitmq.ModeAMQP {
		observability.SetSink(publisher)
	}

	hub := ws.NewHub()
	unsubscribe := container.Subscribe(hub.HandleEvent)
	defer unsubscribe()

	identityManager := identity.NewManager(container, st, auditor, identity.Options{
		LockoutThreshold: cfg.LockoutThreshold,
		LockoutWindow:    cfg.LockoutWindow,
		WatchInterval:    cfg.WatchInterval,
		DeviceLabel:      cfg.DeviceLabel,
	})
	defer identityManager.Close()
	if resumed, err := identityManager.Resume(ctx); err != nil {
		log.Warn().Err(err).Msg("could not resume session")
	} else if resumed {
		log.Info().Msg("previous session resumed")
	}

	conversations := conversation.NewService(container, time.Now)
	messages := messaging.NewService(container, cfg.VoiceLabel, time.Now)
	simulator := messaging.NewSimulator(messages, container, cfg.VoiceDelay, cfg.CallDuration)
	defer simulator.Close()
	prefs := preferences.NewService(container)

	authHandler := handlers.NewAuthHandler(identityManager)
	chatHandler := handlers.NewChatHandler(conversations)
	groupHandler := handlers.NewGroupHandler(conversations)
	messageHandler := handlers.NewMessageHandler(messages, simulator)
	prefsHandler := handlers.NewPreferencesHandler(prefs)
	eventsWS := ws.NewEventsWebSocketHandler(hub, identityManager, cfg.UIOrigins)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware("kit-messenger"))
	router.Use(observability.HTTPMetricsMiddleware())

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.AuthRatePerSecond), cfg.AuthRateBurst, 2*time.Minute)
	defer limiter.Stop()
	authMiddleware := middleware.RequireSession(identityManager)

	auth := router.Group("/auth", limiter.Handler())
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)
	auth.POST("/password", authMiddleware, authHandler.ChangePassword)
	auth.PATCH("/profile", authMiddleware, authHandler.UpdateProfile)

	router.GET("/sessions", authMiddleware, authHandler.ListSessions)
	router.DELETE("/sessions/:session_id", authMiddleware, authHandler.RevokeSession)

	router.GET("/users/search", authMiddleware, chatHandler.SearchUsers)
	router.GET("/chats", authMiddleware, chatHandler.ListChats)
	router.POST("/chats/start", authMiddleware, chatHandler.StartChat)

	router.GET("/groups", authMiddleware, groupHandler.ListGroups)
	router.POST("/groups", authMiddleware, groupHandler.CreateGroup)
	router.POST("/groups/:group_id/members", authMiddleware, groupHandler.AddMembers)
	router.DELETE("/groups/:group_id/members/:user_id", authMiddleware, groupHandler.RemoveMember)
	router.PUT("/groups/:group_id/admins/:user_id", authMiddleware, groupHandler.SetAdmin)

	router.POST("/messages", authMiddleware, messageHandler.PostMessage)
	router.GET("/messages", authMiddleware, messageHandler.GetMessages)
	router.DELETE("/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.PUT("/focus", authMiddleware, messageHandler.SetFocus)
	router.POST("/messages/voice", authMiddleware, messageHandler.RecordVoice)
	router.POST("/calls", authMiddleware, messageHandler.StartCall)

	router.GET("/preferences", prefsHandler.Get)
	router.PUT("/preferences", prefsHandler.Update)

	router.GET("/ws/events", eventsWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, auditor, container, cfg.Env == "dev")

	server := &http.Server{Addr: cfg.Addr, Handler: router}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("bridge listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown")
	}
}

// openSlot selects the durable slot backend for the configured driver.
func openSlot(cfg config.Config) (store.Slot, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite3", "postgres":
		database, err := db.Connect(cfg.StoreDriver, cfg.StoreDSN)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLSlot(database, cfg.StoreSlot), func() { database.Close() }, nil
	default:
		return store.NewFileSlot(cfg.StorePath), func() {}, nil
	}
}
