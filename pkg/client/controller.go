package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

// Renderer is the user facing surface of a client.
type Renderer interface {
	Render(v View)
	ShowChat(text string)
	ShowStatus(status string)
}

// partnerQueue is implemented by senders which queue messages while the
// channel is down.
type partnerQueue interface {
	DiscardPartnerMessages() int
}

// poolState is our position in the pool of the relay as far as we know it.
type poolState int

const (
	matchIdle poolState = iota
	matchWaiting
	matchPaired
)

// Controller owns the single peer session of a client. Signaling messages,
// user actions and peer session callbacks are executed one at a time on the
// loop started by Run.
type Controller struct {
	sender   Sender
	renderer Renderer

	engine *Engine
	prefs  *Preferences

	match poolState

	// Set by Disconnect until the user asks for a new partner.
	away bool

	events chan func()
	done   chan struct{}
}

func NewController(sender Sender, factory SessionFactory, capturer Capturer, renderer Renderer) *Controller {
	c := &Controller{
		sender:   sender,
		renderer: renderer,
		events:   make(chan func(), 128),
		done:     make(chan struct{}),
	}

	c.engine = NewEngine(sender, factory, capturer)
	c.engine.dispatch = c.post

	c.prefs = NewPreferences(sender, renderer.Render)
	c.engine.OnRemoteMedia(c.prefs.SetRemoteMedia)

	return c
}

// Run executes queued events until ctx is done and closes the session on exit.
// Events posted after Run returned are dropped.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.engine.Teardown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f := <-c.events:
			f()
		}
	}
}

func (c *Controller) post(f func()) {
	select {
	case c.events <- f:
	case <-c.done:
	}
}

// HandleMessage queues an inbound signaling message.
func (c *Controller) HandleMessage(msg *pkg.SignalingMessage) {
	c.post(func() { c.handle(msg) })
}

// HandleChannelState queues a change of the signaling channel state.
func (c *Controller) HandleChannelState(open bool) {
	c.post(func() {
		if open {
			// The relay matches every new channel right away.
			c.away = false
			c.renderer.ShowStatus("Connected to relay")
			return
		}

		// The relay drops our pairing together with the channel.
		c.match = matchIdle
		c.teardown()

		if q, ok := c.sender.(partnerQueue); ok {
			if n := q.DiscardPartnerMessages(); n > 0 {
				logrus.Warnf("Discarded %d queued messages for the lost partner", n)
			}
		}

		c.renderer.ShowStatus("Lost connection to relay")
	})
}

// Next leaves the current partner and asks for a new one.
func (c *Controller) Next() {
	c.post(func() {
		c.away = false

		switch c.match {
		case matchWaiting:
			c.renderer.ShowStatus("Still waiting for a partner")
			return

		case matchPaired:
			c.report(c.engine.Disconnect())
			c.prefs.Reset()

		default:
			c.teardown()
		}

		c.match = matchIdle
		c.report(c.sender.Send(pkg.NewReady()))
		c.renderer.ShowStatus("Looking for a new partner")
	})
}

// Disconnect leaves the current partner or the waiting slot without
// re-entering the pool.
func (c *Controller) Disconnect() {
	c.post(func() {
		c.away = true

		switch c.match {
		case matchPaired:
			c.report(c.engine.Disconnect())
			c.prefs.Reset()

		case matchWaiting:
			c.teardown()
			c.report(c.sender.Send(pkg.NewDisconnected()))

		default:
			c.teardown()
		}

		c.match = matchIdle
		c.renderer.ShowStatus("Disconnected")
	})
}

func (c *Controller) ToggleBlur() {
	c.post(func() {
		if c.match != matchPaired {
			c.renderer.ShowStatus("No partner to share the preference with")
			return
		}

		c.report(c.prefs.ToggleLocal())
	})
}

func (c *Controller) SendChat(text string) {
	c.post(func() {
		if c.match != matchPaired {
			c.renderer.ShowStatus("No partner to chat with")
			return
		}

		c.report(c.sender.Send(pkg.NewChat(text)))
	})
}

func (c *Controller) handle(msg *pkg.SignalingMessage) {
	var err error

	// A ready of ours may still have been in flight when the user left.
	if c.away && (msg.Type == pkg.MessageTypeWaiting || msg.Type == pkg.MessageTypeConnected) {
		logrus.Infof("Leaving the pool again after %s", msg.Type)
		c.report(c.sender.Send(pkg.NewDisconnected()))
		return
	}

	switch msg.Type {
	case pkg.MessageTypeWaiting:
		c.match = matchWaiting
		c.renderer.ShowStatus("Waiting for a partner")

	case pkg.MessageTypeConnected:
		c.match = matchPaired
		c.prefs.Reset()
		err = c.engine.StartConnection(*msg.IsOfferer)
		c.renderer.ShowStatus("Connected to a partner")

	case pkg.MessageTypeOffer:
		err = c.engine.HandleOffer(*msg.Offer)

	case pkg.MessageTypeAnswer:
		err = c.engine.HandleAnswer(*msg.Answer)

	case pkg.MessageTypeCandidate:
		err = c.engine.HandleCandidate(*msg.Candidate)

	case pkg.MessageTypeBlurPreference:
		c.prefs.OnRemotePreference(*msg.WantsBlurOff)

	case pkg.MessageTypeChat:
		c.renderer.ShowChat(msg.Message)

	case pkg.MessageTypeDisconnected:
		c.match = matchIdle
		c.teardown()
		c.report(fmt.Errorf("%w: partner disconnected", ErrPeerLost))

		if !c.away {
			err = c.sender.Send(pkg.NewReady())
		}

	case pkg.MessageTypeReady:
		logrus.Debug("Partner is ready")

	default:
		logrus.Warnf("Ignoring message of unknown type %q", msg.Type)
	}

	c.report(err)
}

func (c *Controller) teardown() {
	c.engine.Teardown()
	c.prefs.Reset()
}

func (c *Controller) report(err error) {
	switch {
	case err == nil:

	case errors.Is(err, ErrStaleSignal):
		logrus.Warnf("Discarding signal: %s", err)

	case errors.Is(err, ErrCaptureUnavailable):
		logrus.Warnf("Continuing without local media: %s", err)
		c.renderer.ShowStatus("Camera or microphone unavailable")

	case errors.Is(err, ErrPeerLost):
		logrus.Infof("%s", err)
		c.renderer.ShowStatus("Partner left")

	default:
		logrus.Errorf("%s", err)
	}
}
