package view

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"annotator-readmill/internal/domain"

	"github.com/gorilla/websocket"
)

// Outbound message types.
const (
	TypeLogin            = "login"
	TypeUpdateBook       = "updateBook"
	TypeLoadAnnotations  = "loadAnnotations"
	TypeClearDecorations = "clearDecorations"
	TypeNotification     = "notification"
	TypeOpenWindow       = "openWindow"
	TypeCloseWindow      = "closeWindow"
	TypeAnnotationSynced = "annotationSynced"
)

// Inbound message types.
const (
	TypeConnect    = "connect"
	TypeDisconnect = "disconnect"
	TypeGeometry   = "geometry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// DefaultGeometry is assumed until a page reports its window geometry.
var DefaultGeometry = domain.Geometry{OuterWidth: 1280, OuterHeight: 800}

// Message is the envelope exchanged with viewer pages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Notification is the payload of a notification message.
type Notification struct {
	Level   domain.NotificationLevel `json:"level"`
	Message string                   `json:"message"`
}

// OpenWindow asks the page to open a popup.
type OpenWindow struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Features string `json:"features"`
}

// CloseWindow asks the page to close a popup.
type CloseWindow struct {
	ID string `json:"id"`
}

type geometryPayload struct {
	X           int `json:"x"`
	Y           int `json:"y"`
	OuterWidth  int `json:"outerWidth"`
	OuterHeight int `json:"outerHeight"`
}

// Snapshot is the state a page receives when it connects. Nil fields are not
// sent.
type Snapshot struct {
	Book        *domain.Book
	User        *domain.User
	Annotations []*domain.Annotation
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub bridges the sync service and the viewer pages connected over
// WebSocket. Every connected page receives every message.
type Hub struct {
	logger   domain.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	clients  map[*conn]struct{}
	intents  domain.SessionIntents
	snapshot func() Snapshot
	geometry domain.Geometry
	windows  map[string]*hubWindow
	seq      int
}

var (
	_ domain.View               = (*Hub)(nil)
	_ domain.AnnotationSink     = (*Hub)(nil)
	_ domain.Notifier           = (*Hub)(nil)
	_ domain.WindowOpener       = (*Hub)(nil)
	_ domain.AnnotationObserver = (*Hub)(nil)
)

// NewHub creates a hub accepting pages from allowedOrigins. An empty list or
// "*" accepts any origin.
func NewHub(allowedOrigins []string, logger domain.Logger) *Hub {
	h := &Hub{
		logger:   logger,
		clients:  make(map[*conn]struct{}),
		geometry: DefaultGeometry,
		windows:  make(map[string]*hubWindow),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// SetIntents registers the receiver of connect/disconnect intents.
func (h *Hub) SetIntents(intents domain.SessionIntents) {
	h.mu.Lock()
	h.intents = intents
	h.mu.Unlock()
}

// SetSnapshotSource registers the provider of the state sent to pages that
// connect after it was broadcast.
func (h *Hub) SetSnapshotSource(fn func() Snapshot) {
	h.mu.Lock()
	h.snapshot = fn
	h.mu.Unlock()
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and serves the page until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", err, "remote", r.RemoteAddr)
		return
	}

	c := &conn{ws: ws, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	source := h.snapshot
	h.mu.Unlock()
	h.logger.Info("Viewer connected", "remote", r.RemoteAddr)

	if source != nil {
		h.replay(c, source())
	}
	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*conn]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		close(c.send)
	}
}

func (h *Hub) readPump(c *conn) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close()
		h.logger.Info("Viewer disconnected")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Viewer connection closed", "error", err)
			}
			return
		}
		h.dispatch(msg)
	}
}

func (h *Hub) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("Failed to write to viewer", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) dispatch(msg Message) {
	h.mu.RLock()
	intents := h.intents
	h.mu.RUnlock()

	switch msg.Type {
	case TypeConnect:
		if intents == nil {
			h.logger.Warn("Connect intent with no session handler")
			return
		}
		intents.Connect()
	case TypeDisconnect:
		if intents == nil {
			h.logger.Warn("Disconnect intent with no session handler")
			return
		}
		intents.Disconnect()
	case TypeGeometry:
		var g geometryPayload
		if err := json.Unmarshal(msg.Payload, &g); err != nil {
			h.logger.Warn("Invalid geometry message", "error", err)
			return
		}
		h.mu.Lock()
		h.geometry = domain.Geometry{X: g.X, Y: g.Y, OuterWidth: g.OuterWidth, OuterHeight: g.OuterHeight}
		h.mu.Unlock()
	default:
		h.logger.Debug("Ignoring viewer message", "type", msg.Type)
	}
}

// replay queues the snapshot for a page that just connected.
func (h *Hub) replay(c *conn, snap Snapshot) {
	var msgs []Message
	add := func(msgType string, payload interface{}) {
		if m, ok := h.encode(msgType, payload); ok {
			msgs = append(msgs, m)
		}
	}
	if snap.Book != nil {
		add(TypeUpdateBook, snap.Book)
	}
	if snap.User != nil {
		add(TypeLogin, snap.User)
	}
	if len(snap.Annotations) > 0 {
		add(TypeLoadAnnotations, snap.Annotations)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			h.logger.Error("Failed to encode viewer message", err, "type", m.Type)
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Viewer send buffer full during replay", "type", m.Type)
		}
	}
}

func (h *Hub) encode(msgType string, payload interface{}) (Message, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to encode viewer message", err, "type", msgType)
		return Message{}, false
	}
	return Message{Type: msgType, Payload: raw}, true
}

// broadcast sends a message to every page. A page that cannot keep up is
// dropped.
func (h *Hub) broadcast(msgType string, payload interface{}) {
	m, ok := h.encode(msgType, payload)
	if !ok {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("Failed to encode viewer message", err, "type", msgType)
		return
	}

	h.mu.RLock()
	var slow []*conn
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Dropping slow viewer")
		h.remove(c)
	}
}

func (h *Hub) Login(user *domain.User) {
	h.broadcast(TypeLogin, user)
}

func (h *Hub) UpdateBook(book domain.Book) {
	h.broadcast(TypeUpdateBook, book)
}

func (h *Hub) ClearDecorations() {
	h.broadcast(TypeClearDecorations, struct{}{})
}

func (h *Hub) LoadAnnotations(annotations []*domain.Annotation) {
	if annotations == nil {
		annotations = []*domain.Annotation{}
	}
	h.broadcast(TypeLoadAnnotations, annotations)
}

func (h *Hub) AnnotationSynced(a *domain.Annotation) {
	h.broadcast(TypeAnnotationSynced, a)
}

func (h *Hub) Notify(level domain.NotificationLevel, message string) {
	h.broadcast(TypeNotification, Notification{Level: level, Message: message})
}

// Geometry returns the last geometry reported by a page.
func (h *Hub) Geometry() domain.Geometry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.geometry
}

// Open asks the connected pages to open a popup. The window is keyed by the
// state parameter of rawURL so its fragment can be delivered later.
func (h *Hub) Open(rawURL, name, features string) (domain.Window, error) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return nil, domain.ErrPopupBlocked
	}
	h.seq++
	id := windowID(rawURL, h.seq)
	w := &hubWindow{id: id, hub: h}
	h.windows[id] = w
	h.mu.Unlock()

	h.broadcast(TypeOpenWindow, OpenWindow{ID: id, URL: rawURL, Name: name, Features: features})
	return w, nil
}

func windowID(rawURL string, seq int) string {
	if u, err := url.Parse(rawURL); err == nil {
		if state := u.Query().Get("state"); state != "" {
			return state
		}
	}
	return "window-" + strconv.Itoa(seq)
}

// DeliverFragment hands the redirect fragment to the popup window id.
func (h *Hub) DeliverFragment(id, fragment string) error {
	h.mu.RLock()
	w, ok := h.windows[id]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrUnknownFlow
	}
	w.setFragment(fragment)
	return nil
}

// HasWindow reports whether popup id is open.
func (h *Hub) HasWindow(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.windows[id]
	return ok
}

func (h *Hub) closeWindow(id string) {
	h.mu.Lock()
	_, ok := h.windows[id]
	delete(h.windows, id)
	h.mu.Unlock()
	if ok {
		h.broadcast(TypeCloseWindow, CloseWindow{ID: id})
	}
}
