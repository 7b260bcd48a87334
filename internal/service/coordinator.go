package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
	"annotator-readmill/pkg/future"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// User-visible notifications.
const (
	MsgConnected        = "Successfully connected to Readmill"
	MsgConnectFailed    = "Unable to connect to Readmill"
	MsgPopupBlocked     = "Unable to open the Readmill connect window"
	MsgBookFailed       = "Unable to fetch book info from Readmill"
	MsgUserFailed       = "Unable to fetch user info from Readmill"
	MsgReadingFailed    = "Unable to create reading for this book"
	MsgHighlightsFailed = "Unable to fetch highlights for reading"
	MsgCreateFailed     = "Unable to send annotation to Readmill"
	MsgUpdateFailed     = "Unable to update annotation in Readmill"
	msgPendingDiscarded = "%d annotation(s) made before connecting were not sent to Readmill"
)

// hydrationConcurrency bounds parallel comment fetches during hydration.
const hydrationConcurrency = 8

// SessionState is the coordinator's position in the connect sequence.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateConnecting
	StateConnected
	StateReadingResolved
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReadingResolved:
		return "reading_resolved"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is a snapshot of the coordinator state.
type Session struct {
	State   SessionState `json:"state"`
	User    *domain.User `json:"user,omitempty"`
	Book    domain.Book  `json:"book"`
	Pending int          `json:"pending"`
}

// Dependencies are the collaborators of a Coordinator. Observer is optional.
type Dependencies struct {
	Client     domain.RemoteClient
	Store      domain.CredentialStore
	Authorizer domain.Authorizer
	View       domain.View
	Sink       domain.AnnotationSink
	Notifier   domain.Notifier
	Observer   domain.AnnotationObserver
	Logger     domain.Logger
}

// Options tune a Coordinator.
type Options struct {
	// AccessToken connects silently at Init without consulting the store.
	AccessToken string
	// ReplayPending sends annotations made before connecting once a reading
	// is resolved. When false they are dropped with a notification.
	ReplayPending bool
}

// Coordinator keeps local annotations in sync with the reading service. It
// owns the session, the book and its reading, and turns local annotation
// events into remote calls.
type Coordinator struct {
	client   domain.RemoteClient
	store    domain.CredentialStore
	auth     domain.Authorizer
	view     domain.View
	sink     domain.AnnotationSink
	notifier domain.Notifier
	observer domain.AnnotationObserver
	logger   domain.Logger
	opts     Options
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	readings singleflight.Group

	// credMu orders token writes of a connect attempt against Disconnect.
	credMu sync.Mutex

	mu            sync.Mutex
	destroyed     bool
	state         SessionState
	epoch         uint64
	user          *domain.User
	book          *domain.Book
	bookLookup    *future.Future[*domain.Book]
	connecting    *future.Future[*domain.User]
	awaitingPopup bool
	pending       []*domain.Annotation
}

var (
	_ domain.AnnotationListener = (*Coordinator)(nil)
	_ domain.SessionIntents     = (*Coordinator)(nil)
	_ domain.Plugin             = (*Coordinator)(nil)
)

// NewCoordinator creates a coordinator for book.
func NewCoordinator(book domain.Book, deps Dependencies, opts Options) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	b := book
	return &Coordinator{
		client:   deps.Client,
		store:    deps.Store,
		auth:     deps.Authorizer,
		view:     deps.View,
		sink:     deps.Sink,
		notifier: deps.Notifier,
		observer: deps.Observer,
		logger:   deps.Logger,
		opts:     opts,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		book:     &b,
	}
}

// Init starts the book lookup and, when a token is configured or stored,
// connects silently. It does not wait for either to finish.
func (c *Coordinator) Init(ctx context.Context) error {
	c.LookupBook()

	token := c.opts.AccessToken
	persist := token != ""
	if token == "" {
		var stored domain.AccessToken
		found, err := c.store.Get(ctx, domain.AccessTokenKey, &stored)
		if err != nil {
			c.logger.Warn("Failed to read stored access token", "error", err)
		}
		if found && !stored.Expired(c.now()) {
			token = stored.Token
		}
	}

	if token != "" {
		c.logger.Info("Connecting with existing access token")
		c.connectSilently(&domain.Grant{AccessToken: token}, persist)
	}
	return nil
}

// Destroy cancels in-flight work and waits for it to stop.
func (c *Coordinator) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.logger.Info("Sync coordinator stopped")
}

// Session returns a snapshot of the current state.
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{
		State:   c.state,
		User:    c.user,
		Book:    *c.book,
		Pending: len(c.pending),
	}
}

// LookupBook resolves the book against the remote service. Concurrent callers
// share one lookup; a failed lookup is forgotten so the next call retries.
func (c *Coordinator) LookupBook() *future.Future[*domain.Book] {
	c.mu.Lock()
	if c.bookLookup != nil {
		f := c.bookLookup
		c.mu.Unlock()
		return f
	}
	f := future.New[*domain.Book]()
	c.bookLookup = f
	query := *c.book
	c.mu.Unlock()

	started := c.spawn(func(ctx context.Context) {
		var (
			remote *domain.Book
			err    error
		)
		if query.ID != "" {
			remote, err = c.client.GetBook(ctx, query.ID)
		} else {
			remote, err = c.matchOrRegister(ctx, &query)
		}
		if err != nil {
			c.mu.Lock()
			if c.bookLookup == f {
				c.bookLookup = nil
			}
			c.mu.Unlock()
			c.fail(ctx, MsgBookFailed, err)
			f.Reject(err)
			return
		}

		c.mu.Lock()
		c.book.Merge(remote)
		snapshot := *c.book
		c.mu.Unlock()

		c.logger.Info("Book resolved", "id", snapshot.ID, "title", snapshot.Title)
		c.view.UpdateBook(snapshot)
		f.Resolve(&snapshot)
	})
	if !started {
		c.mu.Lock()
		if c.bookLookup == f {
			c.bookLookup = nil
		}
		c.mu.Unlock()
		f.Reject(context.Canceled)
	}
	return f
}

// matchOrRegister matches the book and registers it when the service does not
// know it yet.
func (c *Coordinator) matchOrRegister(ctx context.Context, query *domain.Book) (*domain.Book, error) {
	remote, err := c.client.MatchBook(ctx, query)
	if err == nil || query.Title == "" ||
		!apperrors.IsType(err, apperrors.ErrorTypeTransport) ||
		apperrors.GetStatusCode(err) != http.StatusNotFound {
		return remote, err
	}

	location, err := c.client.CreateBook(ctx, query)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Book registered", "title", query.Title, "location", location)
	return c.client.MatchBook(ctx, query)
}

// Connect runs the popup authorization flow. Concurrent calls share one
// result, but a popup still waiting for its redirect is replaced by a new one
// so an abandoned popup never blocks the user. An established session is
// returned as is.
func (c *Coordinator) Connect() *future.Future[*domain.User] {
	return c.connectPopup(true)
}

// ensureConnected starts the popup flow unless a connect attempt is running.
func (c *Coordinator) ensureConnected() *future.Future[*domain.User] {
	return c.connectPopup(false)
}

func (c *Coordinator) connectPopup(reopen bool) *future.Future[*domain.User] {
	c.mu.Lock()
	if c.user != nil {
		user := c.user
		c.mu.Unlock()
		return future.Resolved(user)
	}
	f := c.connecting
	if f != nil && !(reopen && c.awaitingPopup) {
		c.mu.Unlock()
		return f
	}
	if f == nil {
		f = future.New[*domain.User]()
		c.connecting = f
		c.state = StateConnecting
	}
	c.awaitingPopup = true
	epoch := c.epoch
	c.mu.Unlock()

	c.runConnect(f, epoch, func(ctx context.Context) (*domain.Grant, error) {
		_, pending := c.auth.Connect()
		return pending.Wait(ctx)
	}, false, true)
	return f
}

func (c *Coordinator) connectSilently(grant *domain.Grant, persist bool) {
	c.mu.Lock()
	if c.connecting != nil || c.user != nil {
		c.mu.Unlock()
		return
	}
	f := future.New[*domain.User]()
	c.connecting = f
	c.state = StateConnecting
	c.awaitingPopup = false
	epoch := c.epoch
	c.mu.Unlock()

	c.runConnect(f, epoch, func(context.Context) (*domain.Grant, error) {
		return grant, nil
	}, true, persist)
}

// runConnect settles f with the outcome of one attempt. An attempt whose popup
// was replaced leaves f to the attempt that replaced it.
func (c *Coordinator) runConnect(f *future.Future[*domain.User], epoch uint64, obtain func(ctx context.Context) (*domain.Grant, error), silent, persist bool) {
	started := c.spawn(func(ctx context.Context) {
		grant, err := obtain(ctx)
		if errors.Is(err, domain.ErrFlowSuperseded) {
			c.logger.Debug("Authorization flow replaced")
			return
		}
		c.mu.Lock()
		if c.connecting == f {
			c.awaitingPopup = false
		}
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("Authorization failed", "error", err)
			if !errors.Is(err, domain.ErrFlowCancelled) {
				c.notifyFailure(ctx, connectFailureMessage(err))
			}
			c.finishConnect(f, epoch, StateAnonymous)
			f.Reject(err)
			return
		}

		user, err := c.connected(ctx, f, epoch, grant, silent, persist)
		if err != nil {
			c.finishConnect(f, epoch, StateAnonymous)
			f.Reject(err)
			return
		}
		c.finishConnect(f, epoch, StateConnected)
		f.Resolve(user)
	})
	if !started {
		c.finishConnect(f, epoch, StateAnonymous)
		f.Reject(context.Canceled)
	}
}

// finishConnect clears the connect memo. The state only moves when no
// disconnect happened meanwhile.
func (c *Coordinator) finishConnect(f *future.Future[*domain.User], epoch uint64, state SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connecting == f {
		c.connecting = nil
		c.awaitingPopup = false
	}
	if c.epoch == epoch && c.state == StateConnecting {
		c.state = state
	}
}

// current reports whether the attempt settling f still owns the session.
func (c *Coordinator) current(f *future.Future[*domain.User], epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch && c.connecting == f
}

// live reports whether no disconnect happened since epoch.
func (c *Coordinator) live(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}

// connected authorizes the client with grant, fetches the user and starts
// reading resolution in the background. A grant that arrives after a
// disconnect is discarded.
func (c *Coordinator) connected(ctx context.Context, f *future.Future[*domain.User], epoch uint64, grant *domain.Grant, silent, persist bool) (*domain.User, error) {
	c.credMu.Lock()
	if !c.current(f, epoch) {
		c.credMu.Unlock()
		c.logger.Info("Discarding grant of a cancelled connect attempt")
		return nil, domain.ErrFlowCancelled
	}
	c.client.Authorize(grant.AccessToken)
	if persist {
		token := domain.AccessToken{Token: grant.AccessToken}
		if grant.ExpiresIn > 0 {
			expiry := c.now().Add(grant.ExpiresIn)
			token.Expiry = &expiry
		}
		c.store.Set(ctx, domain.AccessTokenKey, token, grant.ExpiresIn)
	}
	c.credMu.Unlock()

	if !silent {
		c.notifier.Notify(domain.NotificationInfo, MsgConnected)
	}

	user, err := c.client.Me(ctx)
	if err != nil {
		// The stored token stays so a restart can retry silently.
		c.credMu.Lock()
		stale := !c.current(f, epoch)
		if !stale {
			c.client.Deauthorize()
		}
		c.credMu.Unlock()
		if stale {
			return nil, domain.ErrFlowCancelled
		}
		c.fail(ctx, MsgUserFailed, err)
		return nil, err
	}

	c.mu.Lock()
	if c.epoch != epoch || c.connecting != f {
		c.mu.Unlock()
		return nil, domain.ErrFlowCancelled
	}
	c.user = user
	c.mu.Unlock()

	c.logger.Info("Connected", "username", user.Username)
	c.view.Login(user)

	c.spawn(func(ctx context.Context) { c.openReading(ctx, epoch) })
	return user, nil
}

// Disconnect cancels any connect attempt, forgets the token and the session
// and clears decorations. Annotations still queued stay queued.
func (c *Coordinator) Disconnect() {
	c.auth.Abort()

	c.credMu.Lock()
	c.mu.Lock()
	c.epoch++
	c.state = StateAnonymous
	c.user = nil
	c.connecting = nil
	c.awaitingPopup = false
	c.book.Reading = nil
	c.mu.Unlock()

	c.client.Deauthorize()
	if err := c.store.Remove(c.ctx, domain.AccessTokenKey); err != nil {
		c.logger.Error("Failed to remove access token", err)
	}
	c.credMu.Unlock()
	c.readings.Forget(readingKey)

	c.logger.Info("Disconnected")
	c.view.ClearDecorations()
}

const readingKey = "reading"

// resolveReading opens a reading for the book, reusing the existing one when
// the service reports a conflict. Concurrent callers share one resolution. It
// gives up once the session of epoch is gone.
func (c *Coordinator) resolveReading(ctx context.Context, epoch uint64) (*domain.Reading, error) {
	v, err, _ := c.readings.Do(readingKey, func() (interface{}, error) {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return nil, domain.ErrNotAuthorized
		}
		if c.state == StateReadingResolved && c.book.Reading != nil {
			reading := c.book.Reading
			c.mu.Unlock()
			return reading, nil
		}
		c.mu.Unlock()

		book, err := c.LookupBook().Wait(ctx)
		if err != nil {
			return nil, err
		}
		if !c.live(epoch) {
			return nil, domain.ErrNotAuthorized
		}

		location, err := c.client.CreateReadingForBook(ctx, book.ID, domain.ReadingStateOpen)
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
				c.fail(ctx, MsgReadingFailed, err)
				return nil, err
			}
			c.logger.Debug("Reading already open", "book", book.ID, "location", location)
		}
		if location == "" {
			c.fail(ctx, MsgReadingFailed, domain.ErrMissingLocation)
			return nil, domain.ErrMissingLocation
		}

		reading, err := c.client.GetReading(ctx, location)
		if err != nil {
			c.fail(ctx, MsgReadingFailed, err)
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.epoch != epoch {
			return nil, domain.ErrNotAuthorized
		}
		c.book.Reading = reading
		c.state = StateReadingResolved
		return reading, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Reading), nil
}

// openReading resolves the reading, hydrates its highlights and then handles
// annotations made before the session existed. It stops once the session of
// epoch is gone.
func (c *Coordinator) openReading(ctx context.Context, epoch uint64) {
	reading, err := c.resolveReading(ctx, epoch)
	if err != nil {
		c.logger.Warn("Reading not resolved", "error", err)
		return
	}
	c.logger.Info("Reading resolved", "reading", reading.ID, "highlights", reading.HighlightsURL)

	highlights, err := c.client.GetHighlights(ctx, reading.HighlightsURL)
	if err != nil {
		c.fail(ctx, MsgHighlightsFailed, err)
	} else {
		annotations := c.hydrate(ctx, highlights)
		if !c.live(epoch) {
			c.logger.Info("Session ended during hydration", "reading", reading.ID)
			return
		}
		c.logger.Info("Highlights hydrated", "received", len(highlights), "loaded", len(annotations))
		c.sink.LoadAnnotations(annotations)
	}

	c.flushPending(ctx, reading, epoch)
}

// hydrate converts highlights into annotations. Highlights with an unreadable
// selection and those whose comments cannot be fetched are dropped. The order
// of the remaining highlights is kept.
func (c *Coordinator) hydrate(ctx context.Context, highlights []*domain.Highlight) []*domain.Annotation {
	results := make([]*domain.Annotation, len(highlights))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrationConcurrency)
	for i, h := range highlights {
		if h == nil {
			continue
		}
		a, err := AnnotationFromHighlight(h)
		if err != nil {
			c.logger.Debug("Skipping highlight", "uri", h.URI, "error", err)
			continue
		}
		g.Go(func() error {
			comments, err := c.client.GetComments(gctx, h.CommentsURL)
			if err != nil {
				c.logger.Warn("Skipping highlight without comments", "uri", h.URI, "error", err)
				return nil
			}
			applyFirstComment(a, comments)
			results[i] = a
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domain.Annotation, 0, len(results))
	for _, a := range results {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// flushPending replays or discards annotations queued before the reading was
// resolved. The queue is left alone when the session of epoch is gone.
func (c *Coordinator) flushPending(ctx context.Context, reading *domain.Reading, epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	if !c.opts.ReplayPending {
		c.logger.Warn("Discarding pending annotations", "count", len(pending))
		c.notifier.Notify(domain.NotificationInfo, fmt.Sprintf(msgPendingDiscarded, len(pending)))
		return
	}

	c.logger.Info("Replaying pending annotations", "count", len(pending))
	for _, a := range pending {
		if err := c.createHighlight(ctx, reading, a); err != nil {
			continue
		}
		if c.observer != nil {
			c.observer.AnnotationSynced(a)
		}
	}
}

// OnCreated sends a new annotation. Without a session or reading the
// annotation is queued, and a missing session starts the connect flow.
func (c *Coordinator) OnCreated(a *domain.Annotation) *future.Future[*domain.Annotation] {
	authorized := c.client.IsAuthorized()

	c.mu.Lock()
	var reading *domain.Reading
	if c.state == StateReadingResolved && c.book.Resolved() {
		reading = c.book.Reading
	}
	if !authorized || reading == nil {
		c.pending = append(c.pending, a)
		connected := c.user != nil
		epoch := c.epoch
		c.mu.Unlock()

		c.logger.Debug("Annotation queued", "id", a.ID, "authorized", authorized, "connected", connected)
		if !connected {
			c.ensureConnected()
			return future.Resolved(a)
		}
		c.spawn(func(ctx context.Context) {
			if r, err := c.resolveReading(ctx, epoch); err == nil {
				c.flushPending(ctx, r, epoch)
			}
		})
		return future.Resolved(a)
	}
	c.mu.Unlock()

	return runFuture(c, func(ctx context.Context) (*domain.Annotation, error) {
		return a, c.createHighlight(ctx, reading, a)
	})
}

// createHighlight posts a highlight with a's note and records the remote
// locations on a.
func (c *Coordinator) createHighlight(ctx context.Context, reading *domain.Reading, a *domain.Annotation) error {
	highlight, err := HighlightFromAnnotation(a)
	if err != nil {
		c.fail(ctx, MsgCreateFailed, err)
		return err
	}

	location, err := c.client.CreateHighlight(ctx, reading.HighlightsURL, highlight, CommentFromAnnotation(a))
	if err != nil {
		c.fail(ctx, MsgCreateFailed, err)
		return err
	}

	// Keep the location even when the follow-up fetches fail.
	a.SetHighlight(location, "")

	created, err := c.client.GetHighlight(ctx, location)
	if err != nil {
		c.fail(ctx, MsgCreateFailed, err)
		return err
	}
	highlightURL := created.URI
	if highlightURL == "" {
		highlightURL = location
	}
	a.SetHighlight(highlightURL, created.CommentsURL)

	if created.CommentsURL == "" {
		return nil
	}
	comments, err := c.client.GetComments(ctx, created.CommentsURL)
	if err != nil {
		c.fail(ctx, MsgCreateFailed, err)
		return err
	}
	if len(comments) > 0 && comments[0] != nil {
		a.SetCommentURL(comments[0].URI)
	}

	c.logger.Debug("Annotation sent", "id", a.ID, "highlight", highlightURL)
	return nil
}

// OnUpdated sends the edited note. Annotations that were never synced are
// left alone.
func (c *Coordinator) OnUpdated(a *domain.Annotation) *future.Future[*domain.Annotation] {
	_, commentURL, commentsURL := a.RemoteURLs()
	comment := CommentFromAnnotation(a)

	switch {
	case commentURL != "":
		return runFuture(c, func(ctx context.Context) (*domain.Annotation, error) {
			if err := c.client.UpdateComment(ctx, commentURL, comment); err != nil {
				c.fail(ctx, MsgUpdateFailed, err)
				return a, err
			}
			return a, nil
		})
	case commentsURL != "":
		return runFuture(c, func(ctx context.Context) (*domain.Annotation, error) {
			location, err := c.client.CreateComment(ctx, commentsURL, comment)
			if err != nil {
				c.fail(ctx, MsgUpdateFailed, err)
				return a, err
			}
			a.SetCommentURL(location)
			return a, nil
		})
	default:
		return future.Resolved(a)
	}
}

// OnDeleted removes the remote highlight of a, or drops a from the queue when
// it was never sent.
func (c *Coordinator) OnDeleted(a *domain.Annotation) *future.Future[*domain.Annotation] {
	c.mu.Lock()
	for i, p := range c.pending {
		if p == a {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	highlightURL, _, _ := a.RemoteURLs()
	if highlightURL == "" {
		return future.Resolved(a)
	}
	return runFuture(c, func(ctx context.Context) (*domain.Annotation, error) {
		if err := c.client.DeleteHighlight(ctx, highlightURL); err != nil {
			c.fail(ctx, MsgUpdateFailed, err)
			return a, err
		}
		return a, nil
	})
}

// spawn runs fn on a tracked goroutine. It reports false once the coordinator
// is destroyed.
func (c *Coordinator) spawn(fn func(ctx context.Context)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
	return true
}

func runFuture[T any](c *Coordinator, fn func(ctx context.Context) (T, error)) *future.Future[T] {
	f := future.New[T]()
	started := c.spawn(func(ctx context.Context) {
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	})
	if !started {
		f.Reject(context.Canceled)
	}
	return f
}

// fail logs err and shows message, unless the coordinator is shutting down.
func (c *Coordinator) fail(ctx context.Context, message string, err error) {
	c.logger.Error(message, err)
	c.notifyFailure(ctx, message)
}

func (c *Coordinator) notifyFailure(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}
	c.notifier.Notify(domain.NotificationError, message)
}

// connectFailureMessage prefers the reason reported by the provider.
func connectFailureMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeAuthorization && appErr.Details != "" {
		return appErr.Details
	}
	if errors.Is(err, domain.ErrPopupBlocked) {
		return MsgPopupBlocked
	}
	return MsgConnectFailed
}
