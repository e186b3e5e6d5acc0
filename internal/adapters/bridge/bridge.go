// Package bridge is the host-facing command surface: one websocket
// connection carrying JSON command frames in and result/event frames out.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tkachv/parley/internal/app"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Calls *app.CallCoordinator
	Chat  *app.ChatManager

	limit    int
	interval time.Duration
}

func NewController(calls *app.CallCoordinator, chat *app.ChatManager) *Controller {
	return &Controller{
		Calls:    calls,
		Chat:     chat,
		limit:    64,
		interval: time.Second,
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleBridge upgrades the connection and runs the command loop. The
// connection becomes the host event sink for its lifetime; session events
// that outpace the host are dropped rather than allowed to block the
// coordinator.
func (ctl *Controller) HandleBridge(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	log.Info().Str("module", "bridge").Str("client", token).Msg("new bridge connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctl.Calls.SetNotifier(&eventSink{conn: conn})
	defer ctl.Calls.SetNotifier(nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go ctl.writePump(ctx, conn)
	ctl.readPump(ctx, conn)
}
