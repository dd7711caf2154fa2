package buzzer

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/websocket"

	"neon-beat-back/internal/logging"
)

// identTimeout bounds how long a freshly upgraded connection has to send
// its identification frame before it is dropped.
const identTimeout = 10 * time.Second

var idPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// ValidID reports whether id is a well-formed buzzer identifier: exactly
// 12 lowercase hex characters.
func ValidID(id string) bool { return idPattern.MatchString(id) }

type inboundMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type readyFrame struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type feedbackFrame struct {
	ID        string `json:"id"`
	CanAnswer bool   `json:"can_answer"`
}

// Dispatcher is the business-logic capability a connected buzzer's buzz
// frame is routed through. Implemented by internal/service.GameService;
// canAnswer is true only when this buzz caused the buzzer to hold the
// answering slot (a Playing -> Paused(Buzz) transition).
type Dispatcher interface {
	HandleBuzz(id string) (canAnswer bool, err error)
}

// Handler upgrades incoming connections, runs the identification
// handshake, and dispatches buzz frames for the lifetime of the
// connection.
type Handler struct {
	registry   *Registry
	dispatcher Dispatcher
	upgrader   websocket.Upgrader
}

func NewHandler(registry *Registry, dispatcher Dispatcher) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.WithError(err).Warn("buzzer ws upgrade failed")
		return
	}
	conn.SetReadLimit(1 << 16)

	id, ok := h.handshake(conn)
	if !ok {
		return
	}

	bconn := newConnection(id, conn)
	h.registry.Register(bconn)
	bconn.SendReady()
	logging.Log.WithField("id", id).Info("buzzer connected")

	h.readLoop(bconn)

	h.registry.Unregister(id, bconn)
	bconn.Close()
	logging.Log.WithField("id", id).Info("buzzer disconnected")
}

func (h *Handler) handshake(conn *websocket.Conn) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(identTimeout))
	defer conn.SetReadDeadline(time.Time{})

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		closeConn(conn, websocket.ClosePolicyViolation, "identification not received")
		return "", false
	}
	if msgType != websocket.TextMessage {
		closeConn(conn, websocket.CloseUnsupportedData, "expected identification")
		return "", false
	}
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "identification" || !ValidID(msg.ID) {
		closeConn(conn, websocket.CloseInvalidFramePayloadData, "invalid identification")
		return "", false
	}
	return msg.ID, true
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// readLoop drains data frames until the peer closes or errors. Control
// frames never surface here: gorilla answers pings with pongs itself and
// turns a close frame into a read error after echoing it.
func (h *Handler) readLoop(c *Connection) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.handleText(c, data)
	}
}

func (h *Handler) handleText(c *Connection, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.Log.WithField("id", c.ID).Warn("malformed buzzer message")
		return
	}
	switch msg.Type {
	case "buzz":
		if msg.ID != c.ID {
			logging.Log.WithField("id", c.ID).WithField("claimed", msg.ID).Warn("buzz frame claims a different buzzer id, ignoring")
			return
		}
		canAnswer, err := h.dispatcher.HandleBuzz(c.ID)
		if err != nil {
			logging.Log.WithError(err).WithField("id", c.ID).Debug("buzz rejected")
		}
		c.SendCanAnswer(canAnswer)
	case "identification":
		logging.Log.WithField("id", c.ID).Warn("ignoring duplicate identification frame")
	default:
		logging.Log.WithField("id", c.ID).WithField("type", msg.Type).Warn("unrecognised buzzer message")
	}
}
