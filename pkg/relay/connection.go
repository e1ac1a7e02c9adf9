package relay

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

// Connection pumps frames between a WebSocket and the registry.
type Connection struct {
	*websocket.Conn
	pkg.Connection

	registry *Registry
	config   Config

	messages chan []byte
	done     chan struct{}

	// Guards done against frames being queued after the final drain.
	mu     sync.Mutex
	closed bool
}

func NewConnection(c *websocket.Conn, r *http.Request, registry *Registry, cfg Config) *Connection {
	d := &Connection{
		Conn: c,
		Connection: pkg.Connection{
			ID:      uuid.NewString(),
			Remote:  r.RemoteAddr,
			Created: time.Now(),
		},
		registry: registry,
		config:   cfg,
		messages: make(chan []byte, cfg.SendBuffer),
		done:     make(chan struct{}),
	}

	logrus.Infof("Connection opened: %s from %s", d.ID, d.Remote)

	go d.write()
	registry.OnConnect(d)
	go d.read()

	return d
}

func (d *Connection) String() string {
	return d.ID
}

func (d *Connection) Info() pkg.Connection {
	return d.Connection
}

// Send queues a frame for the write pump. A connection which cannot keep up
// is closed rather than silently losing signaling messages.
func (d *Connection) Send(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		metricMessagesDropped.WithLabelValues("closed").Inc()
		return
	}

	select {
	case d.messages <- data:
	default:
		logrus.Warnf("Send buffer of %s is full, closing", d)
		metricMessagesDropped.WithLabelValues("overflow").Inc()
		d.closeLocked()
	}
}

// Close asks the write pump to flush pending frames and hang up.
func (d *Connection) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closeLocked()
}

func (d *Connection) closeLocked() {
	if !d.closed {
		d.closed = true
		close(d.done)
	}
}

func (d *Connection) read() {
	defer func() {
		d.registry.OnDisconnect(d)
		d.Close()
	}()

	d.Conn.SetReadLimit(d.config.MaxMessageSize)
	d.Conn.SetReadDeadline(time.Now().Add(d.config.PongWait))
	d.Conn.SetPongHandler(func(string) error {
		d.Conn.SetReadDeadline(time.Now().Add(d.config.PongWait))
		return nil
	})

	for {
		_, data, err := d.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.Errorf("Failed to read from %s: %s", d, err)
			}
			break
		}

		logrus.Debugf("Read message from %s: %s", d, data)

		d.registry.OnMessage(d, data)
	}
}

func (d *Connection) write() {
	ticker := time.NewTicker(d.config.PingPeriod)
	defer func() {
		logrus.Infof("Connection closing: %s", d)

		ticker.Stop()
		d.Conn.Close()
	}()

loop:
	for {
		select {
		case data := <-d.messages:
			if err := d.writeFrame(data); err != nil {
				logrus.Errorf("Failed to send message to %s: %s", d, err)
				d.Close()
				return
			}

		case <-d.done:
			break loop

		case <-ticker.C:
			d.Conn.SetWriteDeadline(time.Now().Add(d.config.WriteWait))
			if err := d.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.Errorf("Failed to ping %s: %s", d, err)
				d.Close()
				return
			}
		}
	}

	// Flush what was queued before the close was requested
	for {
		select {
		case data := <-d.messages:
			if err := d.writeFrame(data); err != nil {
				return
			}
			continue
		default:
		}
		break
	}

	d.Conn.SetWriteDeadline(time.Now().Add(d.config.WriteWait))
	if err := d.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		logrus.Debugf("Failed to send close message to %s: %s", d, err)
	}
}

func (d *Connection) writeFrame(data []byte) error {
	d.Conn.SetWriteDeadline(time.Now().Add(d.config.WriteWait))
	return d.Conn.WriteMessage(websocket.TextMessage, data)
}
