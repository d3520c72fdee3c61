package infra

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
)

// WebsocketHandler serves one upgraded connection, the connection is closed once it returns
type WebsocketHandler func(c echo.Context, conn *websocket.Conn) error

// Websocket upgrades echo requests and keeps the connection alive with ping frames
type Websocket struct {
	upgrader websocket.Upgrader
}

// NewWebsocket create a Websocket upgrader accepting same host requests and allowOrigins
func NewWebsocket(allowOrigins []string) *Websocket {
	allowed := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			CheckOrigin:      checkOrigin(allowed),
			HandshakeTimeout: 3 * time.Second,
		},
	}
}

// checkOrigin requests without Origin don't come from a browser and carry no ambient cookie risk
func checkOrigin(allowed map[string]bool) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// WithHeartbeat wrap handler function with heartbeat probe
func (ws *Websocket) WithHeartbeat(handler WebsocketHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// Upgrade has already replied to the client
			return nil
		}
		defer conn.Close()

		done := make(chan struct{})
		defer close(done)

		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		go heartbeatRoutine(conn, done)

		// the request context only lives as long as this call, so the handler runs inline
		if err := handler(c, conn); err != nil && !isCloseError(err) {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()),
				time.Now().Add(writeWait))
		}
		return nil
	}
}

func heartbeatRoutine(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func isCloseError(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
