package client

import (
	"context"
	"strings"
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stv0g/pion-roulette/pkg"
)

// loopbackSender hands every message to the controller of the partner after
// a trip through the wire encoding.
type loopbackSender struct {
	t    *testing.T
	peer *Controller
}

func (s *loopbackSender) Send(msg *pkg.SignalingMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	decoded, err := pkg.DecodeMessage(data)
	if err != nil {
		s.t.Errorf("DecodeMessage(%s): %v", data, err)
		return err
	}

	s.peer.HandleMessage(decoded)
	return nil
}

func startPionController(t *testing.T, sender Sender) *Controller {
	t.Helper()

	factory, err := NewSessionFactory(SessionConfig{})
	if err != nil {
		t.Fatalf("NewSessionFactory: %v", err)
	}

	c := NewController(sender, factory, newVideoCapturer(t), &fakeRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return c
}

func TestSessionFactoryNegotiates(t *testing.T) {
	toB := &loopbackSender{t: t}
	toA := &loopbackSender{t: t}

	a := startPionController(t, toB)
	b := startPionController(t, toA)
	toB.peer = b
	toA.peer = a

	// The answerer must know about the pairing before the offer arrives
	b.HandleMessage(pkg.NewConnected(false))
	inspect(b, func() {})
	a.HandleMessage(pkg.NewConnected(true))

	state := func(c *Controller) State {
		var s State
		inspect(c, func() { s = c.engine.State() })
		return s
	}

	eventually(t, "both sessions stable", func() bool {
		return state(a) == StateStable && state(b) == StateStable
	})

	var offer, answer *webrtc.SessionDescription
	inspect(b, func() { offer = b.engine.RemoteDescription() })
	inspect(a, func() { answer = a.engine.RemoteDescription() })

	if offer.Type != webrtc.SDPTypeOffer || !strings.Contains(offer.SDP, "m=video") {
		t.Fatalf("answerer remote description %v, want an offer with video", offer.Type)
	}
	if answer.Type != webrtc.SDPTypeAnswer || !strings.Contains(answer.SDP, "m=video") {
		t.Fatalf("offerer remote description %v, want an answer with video", answer.Type)
	}
}
