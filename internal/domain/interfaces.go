package domain

import (
	"context"
	"time"

	"annotator-readmill/pkg/future"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetAllowedOrigins() []string

	GetAPIEndpoint() string
	GetAuthEndpoint() string
	GetClientID() string
	GetCallbackURI() string
	GetAccessToken() string
	GetHTTPTimeout() time.Duration

	GetBook() Book
	GetReplayPending() bool

	GetStorageBackend() string
	GetStoragePath() string
	GetRedisAddr() string
	GetRedisDB() int
	GetRedisPassword() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetSupabaseKVTable() string
}

// RemoteClient is the typed transport to the reading service.
type RemoteClient interface {
	Authorize(token string)
	Deauthorize()
	IsAuthorized() bool

	Me(ctx context.Context) (*User, error)
	GetBook(ctx context.Context, id ID) (*Book, error)
	MatchBook(ctx context.Context, book *Book) (*Book, error)
	CreateBook(ctx context.Context, book *Book) (string, error)
	CreateReadingForBook(ctx context.Context, bookID ID, state ReadingState) (string, error)
	GetReading(ctx context.Context, url string) (*Reading, error)
	GetHighlights(ctx context.Context, url string) ([]*Highlight, error)
	GetHighlight(ctx context.Context, url string) (*Highlight, error)
	CreateHighlight(ctx context.Context, url string, highlight HighlightInput, comment CommentInput) (string, error)
	DeleteHighlight(ctx context.Context, url string) error
	GetComments(ctx context.Context, url string) ([]*Comment, error)
	CreateComment(ctx context.Context, url string, comment CommentInput) (string, error)
	UpdateComment(ctx context.Context, url string, comment CommentInput) error
}

// CredentialStore persists JSON values, optionally with an expiry.
type CredentialStore interface {
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Remove(ctx context.Context, key string) error
}

// StorageBackend is the raw key/value persistence behind a CredentialStore.
// GetItem reports found=false for a missing key.
type StorageBackend interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Authorizer runs the popup authorization flow. Abort rejects every pending
// flow with ErrFlowCancelled and closes its popup.
type Authorizer interface {
	Connect() (string, *future.Future[*Grant])
	Abort()
}

// Geometry is the position and outer size of the window that opens popups.
type Geometry struct {
	X, Y        int
	OuterWidth  int
	OuterHeight int
}

// Window is an opened popup.
type Window interface {
	// Fragment returns the URL fragment without the leading '#'.
	Fragment() (string, error)
	Close() error
}

// WindowOpener opens popups on the viewer page.
type WindowOpener interface {
	Open(url, name, features string) (Window, error)
	Geometry() Geometry
}

// View renders the connect/login widget.
type View interface {
	Login(user *User)
	UpdateBook(book Book)
	ClearDecorations()
}

// AnnotationSink receives hydrated annotations in one batch.
type AnnotationSink interface {
	LoadAnnotations(annotations []*Annotation)
}

// AnnotationObserver is told when an annotation gained remote locations
// outside of a request that could report them.
type AnnotationObserver interface {
	AnnotationSynced(a *Annotation)
}

// NotificationLevel classifies user-visible notifications.
type NotificationLevel string

const (
	NotificationInfo  NotificationLevel = "info"
	NotificationError NotificationLevel = "error"
)

// Notifier shows user-visible notifications.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}

// AnnotationListener handles local annotation lifecycle events. The returned
// future settles once every remote call triggered by the event has finished.
type AnnotationListener interface {
	OnCreated(a *Annotation) *future.Future[*Annotation]
	OnUpdated(a *Annotation) *future.Future[*Annotation]
	OnDeleted(a *Annotation) *future.Future[*Annotation]
}

// SessionIntents are the user intents published by the widget.
type SessionIntents interface {
	Connect() *future.Future[*User]
	Disconnect()
}

// Plugin is a component with an explicit lifecycle.
type Plugin interface {
	Init(ctx context.Context) error
	Destroy()
}
