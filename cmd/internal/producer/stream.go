package producer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamReadLimit    = 4 * 1024
)

// Event is one message sent over the stream socket.
type Event struct {
	Type     string    `json:"type"` // "line" or "result"
	Stream   string    `json:"stream,omitempty"`
	Text     string    `json:"text,omitempty"`
	Outcome  Outcome   `json:"outcome,omitempty"`
	ExitCode *int      `json:"exit_code,omitempty"`
	Error    string    `json:"error,omitempty"`
	TS       time.Time `json:"ts"`
}

// StreamHandler upgrades to a WebSocket and relays a fresh producer run line
// by line, finishing with a "result" event. Authentication is applied by the
// caller's middleware.
type StreamHandler struct {
	runner         *Runner
	log            *slog.Logger
	originPatterns []string
	now            func() time.Time
}

// NewStreamHandler builds a StreamHandler. allowedOrigins uses the same
// format as the CORS allow list; "*" accepts any origin.
func NewStreamHandler(runner *Runner, log *slog.Logger, allowedOrigins []string) *StreamHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StreamHandler{
		runner:         runner,
		log:            log,
		originPatterns: originPatterns(allowedOrigins),
		now:            time.Now,
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Info("producer.ws.accept.fail", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	conn.SetReadLimit(streamReadLimit)

	// Clients only listen; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	res, err := h.runner.Stream(ctx, func(ln Line) error {
		return h.write(ctx, conn, Event{Type: "line", Stream: ln.Stream, Text: ln.Text})
	})
	if ctx.Err() != nil {
		h.log.Info("producer.ws.client_gone", "remote", r.RemoteAddr)
		return
	}

	code := res.ExitCode
	final := Event{Type: "result", Outcome: res.Outcome, ExitCode: &code}
	if err != nil {
		final.Error = "producer could not be started"
	}
	if werr := h.write(ctx, conn, final); werr != nil {
		h.log.Info("producer.ws.write.fail", "err", werr, "close_status", websocket.CloseStatus(werr))
		return
	}

	_ = conn.Close(websocket.StatusNormalClosure, string(res.Outcome))
}

func (h *StreamHandler) write(parent context.Context, conn *websocket.Conn, ev Event) error {
	ev.TS = h.now().UTC()

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, streamWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, b)
}
