package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// EventKSeFStatus is sent whenever the gateway outcome of an invoice changes.
const EventKSeFStatus = "invoice.ksef_status"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 32
	eventQueueSize = 64
)

// InvoiceEvent is the payload pushed to operators.
type InvoiceEvent struct {
	Type      string `json:"type"`
	InvoiceID string `json:"invoice_id"`
	CompanyID string `json:"company_id"`
	Number    string `json:"invoice_number"`
	Status    string `json:"status"`
	UPO       string `json:"upo,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Scope returns the ids of the companies whose events a user may receive.
type Scope func(ctx context.Context, userID string) ([]string, error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Subscriber is one operator session. It only receives events of the
// companies it was scoped to; a nil set means every company.
type Subscriber struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	companies map[string]struct{}
}

func (s *Subscriber) wants(companyID string) bool {
	if s.companies == nil {
		return true
	}
	_, ok := s.companies[companyID]
	return ok
}

// Hub owns the subscriber set. Only Run touches it, apart from the count.
type Hub struct {
	subscribers map[*Subscriber]struct{}
	events      chan InvoiceEvent
	join        chan *Subscriber
	leave       chan *Subscriber
	mu          sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		events:      make(chan InvoiceEvent, eventQueueSize),
		join:        make(chan *Subscriber),
		leave:       make(chan *Subscriber),
	}
}

// Run is the dispatch loop; start it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.join:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()
			log.Printf("WebSocket subscriber joined (user %s, %d companies)", s.userID, len(s.companies))
		case s := <-h.leave:
			h.drop(s)
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event InvoiceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to encode websocket event: %v", err)
		return
	}

	h.mu.Lock()
	var slow []*Subscriber
	for s := range h.subscribers {
		if !s.wants(event.CompanyID) {
			continue
		}
		select {
		case s.send <- payload:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.Unlock()

	for _, s := range slow {
		log.Printf("WebSocket subscriber of user %s is not reading, disconnecting", s.userID)
		h.drop(s)
	}
}

func (h *Hub) drop(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	close(s.send)
	log.Printf("WebSocket subscriber left (user %s)", s.userID)
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Publish queues an event without blocking. When the queue is full the event
// is dropped and logged; the invoice itself already carries the status.
func (h *Hub) Publish(event InvoiceEvent) {
	select {
	case h.events <- event:
	default:
		log.Printf("websocket event queue full, dropping %s for invoice %s", event.Type, event.InvoiceID)
	}
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only detects disconnects; subscribers do not send commands.
func (s *Subscriber) readPump() {
	defer func() {
		s.hub.leave <- s
		_ = s.conn.Close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}
	}
}

// subjectFromToken checks an HMAC-signed JWT and returns its subject.
func subjectFromToken(tokenString string, secret []byte) (string, bool) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}

// ServeWs authenticates the ?token= query parameter, resolves the companies
// the user may follow and upgrades the request. A nil scope subscribes the
// user to every company.
func ServeWs(hub *Hub, c *gin.Context, secret []byte, scope Scope) {
	userID, ok := subjectFromToken(c.Query("token"), secret)
	if !ok {
		log.Println("WebSocket connection rejected: missing or invalid token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var companies map[string]struct{}
	if scope != nil {
		ids, err := scope(c.Request.Context(), userID)
		if err != nil {
			log.Printf("WebSocket connection rejected: companies of user %s: %v", userID, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		companies = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			companies[id] = struct{}{}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	s := &Subscriber{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		userID:    userID,
		companies: companies,
	}
	hub.join <- s

	go s.writePump()
	go s.readPump()
}
