package bootstrap

import (
	"context"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"pharmarag-chat/internal/config"
	"pharmarag-chat/internal/controller"
	"pharmarag-chat/internal/handler"
	"pharmarag-chat/internal/pkg/logger"
	"pharmarag-chat/internal/pkg/metrics"
	"pharmarag-chat/internal/pkg/serverutils"
	"pharmarag-chat/internal/repository/memory"
	"pharmarag-chat/internal/service"
	"pharmarag-chat/internal/websocket"
	"pharmarag-chat/pkg/events"
	pktNats "pharmarag-chat/pkg/nats"
	"pharmarag-chat/pkg/ragclient"
	"pharmarag-chat/pkg/reference"
	"pharmarag-chat/pkg/workspace"
)

type Container struct {
	// Controllers
	SessionController      controller.ISessionController
	ConversationController controller.IConversationController
	ChatController         controller.IChatController
	LibraryController      controller.ILibraryController

	// Background Services (Exposed for main.go to run)
	RelayService service.IRelayService

	// WebSockets
	EventsHandler *handler.EventsHandler
	WebSocketHub  *websocket.Hub

	// Infrastructure
	Backend    *ragclient.Client
	Metrics    *metrics.Metrics
	Logger     logger.ILogger
	Workspaces *memory.WorkspaceRepository

	closers []func()
}

// NewContainer wires the gateway. Optional infrastructure (NATS, redis, the
// names snapshot) degrades to a warning when it is unavailable.
func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	wsLogger := logger.NewZapLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "websocket.log"), cfg.App.IsProduction())
	return NewContainerWithLoggers(cfg, sysLogger, wsLogger)
}

func NewContainerWithLoggers(cfg *config.Config, sysLogger, wsLogger logger.ILogger) *Container {
	c := &Container{Logger: sysLogger}
	m := metrics.NewMetrics()
	c.Metrics = m

	// 1. RAG backend
	backend := ragclient.New(cfg.Backend.BaseURL(), cfg.Backend.RequestTimeout, ragclient.WithObserver(m))
	c.Backend = backend
	sysLogger.Info("BOOTSTRAP", "RAG backend configured", map[string]interface{}{
		"target":   cfg.Backend.Target,
		"base_url": cfg.Backend.BaseURL(),
	})

	names := namesSource(cfg.Library, backend, m, sysLogger)

	// 2. Event Bus
	bus := events.NewBus(cfg.App.EventTopic, sysLogger)
	c.closers = append(c.closers, func() { _ = bus.Close() })
	publisher := events.MultiPublisher{bus}

	// NATS
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = append(publisher, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 3. Sessions
	if cfg.UsesDefaultSecret() {
		sysLogger.Warn("BOOTSTRAP", "JWT_SECRET not set, signing session tokens with the development secret", nil)
	}
	tokens := serverutils.NewSessionTokens(cfg.Session.JWTSecret, cfg.Session.TTL)
	c.Workspaces = memory.NewWorkspaceRepository(cfg.Session.TTL, func(ws *workspace.Workspace) {
		m.WorkspaceClosed()
		sysLogger.Info("SESSION", "Workspace evicted", map[string]interface{}{"session_id": ws.ID()})
	})

	deps := workspace.Dependencies{
		Answerer:  backend,
		Names:     names,
		Documents: backend,
		Publisher: publisher,
		Logger:    sysLogger,
		Observer:  m,
	}
	settings := workspace.Settings{
		PageSize:        cfg.Library.PageSize,
		SearchDebounce:  cfg.Library.SearchDebounce,
		MinSearchLength: cfg.Library.MinSearchLength,
		AnswerTimeout:   cfg.Chat.AnswerTimeout,
		LoadTimeout:     cfg.Backend.RequestTimeout,
	}
	factory := func(sessionID string) *workspace.Workspace {
		return workspace.New(sessionID, deps, settings)
	}

	// 4. Services
	sessionService := service.NewSessionService(c.Workspaces, tokens, factory, publisher, m, sysLogger)
	conversationService := service.NewConversationService(sessionService)
	chatService := service.NewChatService(sessionService, sysLogger)
	libraryService := service.NewLibraryService(sessionService)
	c.RelayService = service.NewRelayService(bus, c.WebSocketHub, sysLogger)

	// 5. Controllers
	auth := tokens.Middleware()
	c.SessionController = controller.NewSessionController(sessionService, auth)
	c.ConversationController = controller.NewConversationController(conversationService, auth)
	c.ChatController = controller.NewChatController(chatService, auth)
	c.LibraryController = controller.NewLibraryController(libraryService, auth)
	c.EventsHandler = handler.NewEventsHandler(sessionService, tokens, c.WebSocketHub, wsLogger)

	return c
}

// namesSource picks the static snapshot when configured, else the backend,
// optionally behind the page cache.
func namesSource(cfg config.LibraryConfig, backend *ragclient.Client, m *metrics.Metrics, log logger.ILogger) reference.Source {
	var src reference.Source = backend
	if cfg.SnapshotPath != "" {
		snap, err := reference.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			log.Warn("BOOTSTRAP", "Failed to load names snapshot, using backend", map[string]interface{}{
				"path":  cfg.SnapshotPath,
				"error": err.Error(),
			})
		} else {
			log.Info("BOOTSTRAP", "Serving medicine names from snapshot", map[string]interface{}{"count": snap.Len()})
			return snap
		}
	}
	if cfg.CacheEnabled {
		src = reference.NewCachedSource(src, cfg.CacheTTL, m)
	}
	return src
}

// Close releases the connections opened by NewContainer, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
