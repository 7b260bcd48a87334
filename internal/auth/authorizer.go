package auth

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
	"annotator-readmill/pkg/future"

	"github.com/google/uuid"
)

const (
	// DefaultAuthEndpoint is used when no endpoint is configured.
	DefaultAuthEndpoint = "http://localhost:8000/oauth/authorize"
	// WindowName names the popup so the page reuses a single window.
	WindowName = "readmill-connect"

	PopupWidth  = 725
	PopupHeight = 575
)

type flow struct {
	id     string
	window domain.Window
	result *future.Future[*domain.Grant]
	done   bool
}

// Authorizer drives the popup OAuth flow. Each flow is keyed by its
// correlation id, which travels as the state parameter.
type Authorizer struct {
	clientID    string
	callbackURI string
	endpoint    string
	opener      domain.WindowOpener
	logger      domain.Logger
	newID       func() string

	// AllowConcurrentFlows keeps earlier flows pending when a new one starts.
	AllowConcurrentFlows bool

	mu     sync.Mutex
	flows  map[string]*flow
	latest string
}

var _ domain.Authorizer = (*Authorizer)(nil)

// NewAuthorizer creates an authorizer that opens popups through opener.
func NewAuthorizer(clientID, callbackURI, endpoint string, opener domain.WindowOpener, logger domain.Logger) *Authorizer {
	if endpoint == "" {
		endpoint = DefaultAuthEndpoint
	}
	return &Authorizer{
		clientID:    clientID,
		callbackURI: callbackURI,
		endpoint:    endpoint,
		opener:      opener,
		logger:      logger,
		newID:       func() string { return "state-" + uuid.NewString() },
		flows:       make(map[string]*flow),
	}
}

// WithIDGenerator replaces the correlation id generator.
func (a *Authorizer) WithIDGenerator(gen func() string) *Authorizer {
	a.newID = gen
	return a
}

// Connect starts a flow and returns its correlation id with the pending grant.
func (a *Authorizer) Connect() (string, *future.Future[*domain.Grant]) {
	fl := &flow{id: a.newID(), result: future.New[*domain.Grant]()}

	a.mu.Lock()
	var superseded []*flow
	if !a.AllowConcurrentFlows {
		for id, prev := range a.flows {
			prev.done = true
			superseded = append(superseded, prev)
			delete(a.flows, id)
		}
	}
	a.flows[fl.id] = fl
	a.latest = fl.id
	a.mu.Unlock()

	for _, prev := range superseded {
		a.logger.Debug("Authorization flow superseded", "state", prev.id, "by", fl.id)
		a.closeWindow(prev)
		prev.result.Reject(domain.ErrFlowSuperseded)
	}

	window, err := a.opener.Open(a.authorizeURL(fl.id), WindowName, a.features())
	if err != nil {
		a.forget(fl)
		if !errors.Is(err, domain.ErrPopupBlocked) {
			err = fmt.Errorf("%w: %v", domain.ErrPopupBlocked, err)
		}
		a.logger.Warn("Authorization popup could not be opened", "state", fl.id, "error", err)
		fl.result.Reject(err)
		return fl.id, fl.result
	}

	a.mu.Lock()
	fl.window = window
	stale := fl.done
	a.mu.Unlock()
	if stale {
		_ = window.Close()
	}

	a.logger.Info("Authorization flow started", "state", fl.id)
	return fl.id, fl.result
}

// Abort cancels every pending flow.
func (a *Authorizer) Abort() {
	a.mu.Lock()
	aborted := make([]*flow, 0, len(a.flows))
	for id, fl := range a.flows {
		fl.done = true
		aborted = append(aborted, fl)
		delete(a.flows, id)
	}
	a.latest = ""
	a.mu.Unlock()

	for _, fl := range aborted {
		a.logger.Debug("Authorization flow cancelled", "state", fl.id)
		a.closeWindow(fl)
		fl.result.Reject(domain.ErrFlowCancelled)
	}
}

// Callback completes flow id from the fragment of its popup window.
func (a *Authorizer) Callback(id string) error {
	a.mu.Lock()
	fl, ok := a.flows[id]
	var window domain.Window
	if ok {
		window = fl.window
	}
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFlow, id)
	}
	if window == nil {
		return domain.ErrNoFragment
	}

	fragment, err := window.Fragment()
	if err != nil {
		return err
	}
	return a.complete(fl, fragment)
}

// CompleteRedirect completes the flow named by the fragment's state parameter,
// or the most recent flow when the fragment carries none.
func (a *Authorizer) CompleteRedirect(fragment string) error {
	id := a.Latest()
	if params, err := Parse(fragment, "&"); err == nil && params.Get("state") != "" {
		id = params.Get("state")
	}

	a.mu.Lock()
	fl, ok := a.flows[id]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFlow, id)
	}
	return a.complete(fl, fragment)
}

// Latest returns the correlation id of the most recently started flow.
func (a *Authorizer) Latest() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Pending returns the number of flows awaiting a callback.
func (a *Authorizer) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.flows)
}

func (a *Authorizer) complete(fl *flow, fragment string) error {
	if !a.forget(fl) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFlow, fl.id)
	}
	a.closeWindow(fl)

	params, err := Parse(fragment, "&")
	if err != nil {
		fl.result.Reject(err)
		return err
	}

	token := params.Get("access_token")
	if token == "" {
		reason := params.Get("error")
		a.logger.Warn("Authorization rejected", "state", fl.id, "reason", reason)
		fl.result.Reject(apperrors.NewAuthorizationError(reason, nil))
		return nil
	}

	fl.result.Resolve(&domain.Grant{
		AccessToken: token,
		ExpiresIn:   params.ExpiresIn(),
		State:       params.Get("state"),
		Scope:       params.Get("scope"),
	})
	a.logger.Info("Authorization flow completed", "state", fl.id)
	return nil
}

// forget removes fl from the pending set. It reports false when fl had
// already been completed or superseded.
func (a *Authorizer) forget(fl *flow) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if fl.done {
		return false
	}
	fl.done = true
	delete(a.flows, fl.id)
	if a.latest == fl.id {
		a.latest = ""
	}
	return true
}

func (a *Authorizer) closeWindow(fl *flow) {
	a.mu.Lock()
	w := fl.window
	a.mu.Unlock()
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		a.logger.Warn("Failed to close authorization popup", "state", fl.id, "error", err)
	}
}

func (a *Authorizer) authorizeURL(id string) string {
	params := Params{
		{Key: "response_type", Value: "code"},
		{Key: "client_id", Value: a.clientID},
		{Key: "redirect_uri", Value: a.callbackURI},
		{Key: "state", Value: id},
	}
	return a.endpoint + "?" + Serialize(params, "&")
}

// features centers the popup over the opening window.
func (a *Authorizer) features() string {
	g := a.opener.Geometry()
	left := g.X + (g.OuterWidth-PopupWidth)/2
	top := g.Y + (g.OuterHeight-PopupHeight)/2

	params := Params{
		{Key: "toolbar", Value: "false"},
		{Key: "location", Value: "1"},
		{Key: "scrollbars", Value: "true"},
		{Key: "top", Value: strconv.Itoa(top)},
		{Key: "left", Value: strconv.Itoa(left)},
		{Key: "width", Value: strconv.Itoa(PopupWidth)},
		{Key: "height", Value: strconv.Itoa(PopupHeight)},
	}
	return Serialize(params, ",")
}
