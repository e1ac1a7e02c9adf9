package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

const writeWait = 10 * time.Second

type SignalingConfig struct {
	URL *url.URL

	// Fixed delay between two connection attempts.
	RetryInterval time.Duration

	// Number of consecutive failed attempts after which Run gives up.
	RetryAttempts int
}

func DefaultSignalingConfig(u *url.URL) SignalingConfig {
	return SignalingConfig{
		URL:           u,
		RetryInterval: 2 * time.Second,
		RetryAttempts: 5,
	}
}

// SignalingClient is a reconnecting channel to the relay. Messages sent
// while the channel is down are queued and flushed in order once it opens.
type SignalingClient struct {
	config SignalingConfig
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	ready   bool
	stopped bool
	queue   []*pkg.SignalingMessage

	messageCallbacks []func(msg *pkg.SignalingMessage)
	stateCallbacks   []func(open bool)
}

func NewSignalingClient(cfg SignalingConfig) *SignalingClient {
	return &SignalingClient{
		config: cfg,
		dialer: websocket.DefaultDialer,
	}
}

// OnSignalingMessage registers a callback for inbound messages. Callbacks are
// invoked from a single goroutine in receipt order. Register them before Run.
func (c *SignalingClient) OnSignalingMessage(cb func(msg *pkg.SignalingMessage)) {
	c.messageCallbacks = append(c.messageCallbacks, cb)
}

// OnStateChange registers a callback invoked whenever the channel opens or
// closes. Register them before Run.
func (c *SignalingClient) OnStateChange(cb func(open bool)) {
	c.stateCallbacks = append(c.stateCallbacks, cb)
}

func (c *SignalingClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ready
}

// Send transmits msg if the channel is open or queues it otherwise.
func (c *SignalingClient) Send(msg *pkg.SignalingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return fmt.Errorf("%w: dropping %s", ErrChannelUnavailable, msg.Type)
	}

	if !c.ready {
		logrus.Debugf("Queueing message: %s", msg)
		c.queue = append(c.queue, msg)
		return nil
	}

	if err := c.write(msg); err != nil {
		logrus.Warnf("Failed to send %s, queueing: %s", msg, err)
		c.ready = false
		c.queue = append(c.queue, msg)
	}

	return nil
}

// DiscardPartnerMessages drops queued messages addressed to a partner and
// returns how many were dropped. The relay forgets our pairing together with
// the channel, so they would otherwise reach whoever we are paired with next.
func (c *SignalingClient) DiscardPartnerMessages() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.discardPartnerMessages()
}

// discardPartnerMessages must be called with mu held.
func (c *SignalingClient) discardPartnerMessages() int {
	kept := []*pkg.SignalingMessage{}
	for _, msg := range c.queue {
		if msg.Type.PartnerScoped() {
			logrus.Debugf("Discarding queued message: %s", msg)
			continue
		}
		kept = append(kept, msg)
	}

	n := len(c.queue) - len(kept)
	c.queue = kept

	return n
}

// Run connects to the relay and keeps reconnecting until ctx is done or the
// number of consecutive failed attempts exceeds the configured bound.
func (c *SignalingClient) Run(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
	}()

	failures := 0
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.config.URL.String(), nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			failures++
			logrus.Warnf("Failed to connect to %s (%d/%d): %s", c.config.URL, failures, c.config.RetryAttempts, err)

			if failures > c.config.RetryAttempts {
				return fmt.Errorf("%w after %d attempts: %s", ErrGaveUp, failures, err)
			}
		} else {
			failures = 0

			c.open(conn)
			c.read(ctx, conn)
			c.close()

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.config.RetryInterval):
		}
	}
}

func (c *SignalingClient) open(conn *websocket.Conn) {
	c.mu.Lock()

	logrus.Infof("Connected to %s", c.config.URL)

	c.conn = conn
	c.ready = true

	queue := c.queue
	c.queue = nil

	for i, msg := range queue {
		if err := c.write(msg); err != nil {
			logrus.Warnf("Failed to flush queue: %s", err)
			c.ready = false
			c.queue = append(queue[i:], c.queue...)
			break
		}
	}

	ready := pkg.NewReady()
	if !c.ready {
		c.queue = append(c.queue, ready)
	} else if err := c.write(ready); err != nil {
		c.ready = false
		c.queue = append(c.queue, ready)
	}

	c.mu.Unlock()

	for _, cb := range c.stateCallbacks {
		cb(true)
	}
}

func (c *SignalingClient) close() {
	c.mu.Lock()
	c.ready = false
	c.conn = nil
	dropped := c.discardPartnerMessages()
	c.mu.Unlock()

	logrus.Infof("Disconnected from %s", c.config.URL)
	if dropped > 0 {
		logrus.Warnf("Discarded %d queued messages for the lost partner", dropped)
	}

	for _, cb := range c.stateCallbacks {
		cb(false)
	}
}

func (c *SignalingClient) read(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-done:
			return

		case <-ctx.Done():
			logrus.Info("Closing")

			// Cleanly close the connection by sending a close message and then
			// waiting (with timeout) for the server to close the connection.
			err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			if err == nil {
				select {
				case <-done:
				case <-time.After(time.Second):
				}
			}

			conn.Close()
		}
	}()

	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.Errorf("Failed to read: %s", err)
			}
			return
		}

		msg, err := pkg.DecodeMessage(data)
		if errors.Is(err, pkg.ErrUnknownType) {
			logrus.Warnf("Ignoring message: %s", err)
			continue
		} else if err != nil {
			logrus.Errorf("Failed to decode message %s: %s", data, err)
			continue
		}

		logrus.Debugf("Received message: %s", msg)

		for _, cb := range c.messageCallbacks {
			cb(msg)
		}
	}
}

// write must be called with mu held.
func (c *SignalingClient) write(msg *pkg.SignalingMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
