package config

import (
	"context"
	"fmt"
	"net/http"

	"annotator-readmill/internal/auth"
	"annotator-readmill/internal/client"
	"annotator-readmill/internal/domain"
	"annotator-readmill/internal/handler"
	"annotator-readmill/internal/service"
	"annotator-readmill/internal/store"
	"annotator-readmill/internal/view"
	"annotator-readmill/pkg/logger"
)

const msgStorageFailed = "Unable to save your Readmill session"

// Container holds all application dependencies
type Container struct {
	Config      domain.Config
	Logger      domain.Logger
	Backend     store.Backend
	Store       *store.Store
	Client      *client.Client
	Hub         *view.Hub
	Authorizer  *auth.Authorizer
	Registry    *service.AnnotationRegistry
	Coordinator *service.Coordinator

	AnnotationHandler *handler.AnnotationHandler
	SessionHandler    *handler.SessionHandler
	OAuthHandler      *handler.OAuthHandler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg domain.Config) (*Container, error) {
	appLogger := logger.NewLogger(cfg.GetLogLevel())
	return NewContainerWithLogger(cfg, appLogger)
}

// NewContainerWithLogger wires the container around an existing logger.
func NewContainerWithLogger(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	backend, err := store.NewBackend(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.GetStorageBackend(), err)
	}

	hub := view.NewHub(cfg.GetAllowedOrigins(), appLogger)

	credentials := store.NewStore(backend, appLogger)
	credentials.OnError(func(err error, key, value string) {
		hub.Notify(domain.NotificationError, msgStorageFailed)
	})

	readmill := client.NewClient(cfg.GetAPIEndpoint(), cfg.GetClientID(), cfg.GetHTTPTimeout(), appLogger)
	authorizer := auth.NewAuthorizer(cfg.GetClientID(), cfg.GetCallbackURI(), cfg.GetAuthEndpoint(), hub, appLogger)
	registry := service.NewAnnotationRegistry(hub)

	coordinator := service.NewCoordinator(cfg.GetBook(), service.Dependencies{
		Client:     readmill,
		Store:      credentials,
		Authorizer: authorizer,
		View:       hub,
		Sink:       registry,
		Notifier:   hub,
		Observer:   hub,
		Logger:     appLogger,
	}, service.Options{
		AccessToken:   cfg.GetAccessToken(),
		ReplayPending: cfg.GetReplayPending(),
	})
	hub.SetIntents(coordinator)
	hub.SetSnapshotSource(viewerSnapshot(coordinator, registry))

	return &Container{
		Config:      cfg,
		Logger:      appLogger,
		Backend:     backend,
		Store:       credentials,
		Client:      readmill,
		Hub:         hub,
		Authorizer:  authorizer,
		Registry:    registry,
		Coordinator: coordinator,

		AnnotationHandler: handler.NewAnnotationHandler(coordinator, registry, appLogger),
		SessionHandler:    handler.NewSessionHandler(coordinator, appLogger),
		OAuthHandler:      handler.NewOAuthHandler(authorizer, hub, appLogger),
	}, nil
}

// viewerSnapshot reports the book once it is resolved, and the user and the
// hydrated annotations while a session is open.
func viewerSnapshot(coordinator *service.Coordinator, registry *service.AnnotationRegistry) func() view.Snapshot {
	return func() view.Snapshot {
		session := coordinator.Session()
		var snap view.Snapshot
		if session.Book.Resolved() {
			book := session.Book
			snap.Book = &book
		}
		snap.User = session.User
		if session.State == service.StateReadingResolved {
			snap.Annotations = registry.Annotations()
		}
		return snap
	}
}

// Start runs the coordinator bootstrap.
func (c *Container) Start(ctx context.Context) error {
	return c.Coordinator.Init(ctx)
}

// Router returns the HTTP surface of the companion.
func (c *Container) Router() http.Handler {
	return handler.NewRouter(
		c.AnnotationHandler,
		c.SessionHandler,
		c.OAuthHandler,
		c.Hub.ServeWS,
		c.Config.GetAllowedOrigins(),
		handler.Recoverer(c.Logger),
		handler.RequestLogger(c.Logger),
	)
}

// Close stops background work and releases the storage backend.
func (c *Container) Close() error {
	c.Coordinator.Destroy()
	c.Hub.Close()
	return c.Backend.Close()
}
