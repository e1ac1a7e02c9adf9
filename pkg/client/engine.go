package client

import (
	"fmt"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg"
)

// Sender delivers messages to the partner via the relay.
type Sender interface {
	Send(msg *pkg.SignalingMessage) error
}

type Role int

const (
	RoleOfferer Role = iota
	RoleAnswerer
)

func (r Role) String() string {
	if r == RoleOfferer {
		return "offerer"
	}
	return "answerer"
}

type State int

const (
	StateIdle State = iota
	StateHaveLocalOffer
	StateHaveRemoteOffer
	StateStable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHaveLocalOffer:
		return "have-local-offer"
	case StateHaveRemoteOffer:
		return "have-remote-offer"
	case StateStable:
		return "stable"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type session struct {
	PeerSession

	role    Role
	pending []webrtc.ICECandidateInit
	closed  bool
}

// Engine drives the offer/answer/candidate exchange of a single peer session.
// Its methods are not safe for concurrent use. Callbacks of the peer session
// are handed to the dispatcher which must serialize them with all other calls.
type Engine struct {
	sender   Sender
	factory  SessionFactory
	capturer Capturer
	dispatch func(func())

	session  *session
	torndown bool
	remote   *webrtc.TrackRemote

	onRemoteMedia func(present bool)
}

func NewEngine(sender Sender, factory SessionFactory, capturer Capturer) *Engine {
	return &Engine{
		sender:   sender,
		factory:  factory,
		capturer: capturer,
		dispatch: func(f func()) { f() },
	}
}

func (e *Engine) OnRemoteMedia(cb func(present bool)) {
	e.onRemoteMedia = cb
}

func (e *Engine) State() State {
	s := e.session
	if s == nil {
		if e.torndown {
			return StateClosed
		}
		return StateIdle
	}

	switch s.SignalingState() {
	case webrtc.SignalingStateHaveLocalOffer:
		return StateHaveLocalOffer
	case webrtc.SignalingStateHaveRemoteOffer:
		return StateHaveRemoteOffer
	case webrtc.SignalingStateClosed:
		return StateClosed
	default:
		if s.RemoteDescription() == nil {
			return StateIdle
		}
		return StateStable
	}
}

func (e *Engine) Role() (Role, bool) {
	if e.session == nil {
		return 0, false
	}
	return e.session.role, true
}

func (e *Engine) RemoteDescription() *webrtc.SessionDescription {
	if e.session == nil {
		return nil
	}
	return e.session.RemoteDescription()
}

func (e *Engine) HasRemoteMedia() bool {
	return e.remote != nil
}

// StartConnection replaces the current session by a fresh one. The offerer
// immediately sends its offer. An error wrapping ErrCaptureUnavailable is
// returned after negotiation started without local tracks.
func (e *Engine) StartConnection(isOfferer bool) error {
	role := RoleAnswerer
	if isOfferer {
		role = RoleOfferer
	}

	s, captureErr := e.newSession(role)
	if s == nil {
		return captureErr
	}

	if isOfferer {
		offer, err := s.CreateOffer(nil)
		if err != nil {
			return fmt.Errorf("%w: failed to create offer: %s", ErrNegotiation, err)
		}

		if err := s.SetLocalDescription(offer); err != nil {
			return fmt.Errorf("%w: failed to set local description: %s", ErrNegotiation, err)
		}

		if err := e.sender.Send(pkg.NewOffer(offer)); err != nil {
			return fmt.Errorf("failed to send offer: %w", err)
		}
	}

	return captureErr
}

func (e *Engine) HandleOffer(offer webrtc.SessionDescription) error {
	var captureErr error

	s := e.session
	if s == nil {
		if s, captureErr = e.newSession(RoleAnswerer); s == nil {
			return captureErr
		}
	}

	if err := s.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("%w: failed to set remote offer: %s", ErrNegotiation, err)
	}

	e.flushCandidates(s)

	answer, err := s.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create answer: %s", ErrNegotiation, err)
	}

	if err := s.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("%w: failed to set local description: %s", ErrNegotiation, err)
	}

	if err := e.sender.Send(pkg.NewAnswer(answer)); err != nil {
		return fmt.Errorf("failed to send answer: %w", err)
	}

	return captureErr
}

// HandleAnswer accepts an answer only while our own offer is outstanding.
func (e *Engine) HandleAnswer(answer webrtc.SessionDescription) error {
	s := e.session
	if s == nil {
		return fmt.Errorf("%w: answer without session", ErrStaleSignal)
	}

	if ss := s.SignalingState(); ss != webrtc.SignalingStateHaveLocalOffer {
		return fmt.Errorf("%w: answer in signaling state %s", ErrStaleSignal, ss)
	}

	if err := s.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("%w: failed to set remote answer: %s", ErrNegotiation, err)
	}

	e.flushCandidates(s)

	return nil
}

// HandleCandidate applies a remote candidate or buffers it until the remote
// description is known.
func (e *Engine) HandleCandidate(c webrtc.ICECandidateInit) error {
	s := e.session
	if s == nil {
		return fmt.Errorf("%w: candidate without session", ErrStaleSignal)
	}

	if s.RemoteDescription() == nil {
		s.pending = append(s.pending, c)
		logrus.Debugf("Buffering candidate until remote description is set (%d pending)", len(s.pending))
		return nil
	}

	if err := s.AddICECandidate(c); err != nil {
		return fmt.Errorf("%w: failed to add candidate: %s", ErrNegotiation, err)
	}

	return nil
}

// Disconnect closes the current session and tells the partner.
func (e *Engine) Disconnect() error {
	e.Teardown()

	return e.sender.Send(pkg.NewDisconnected())
}

// Teardown closes the current session without notifying the partner.
func (e *Engine) Teardown() {
	e.closeSession()
	e.torndown = true
}

func (e *Engine) newSession(role Role) (*session, error) {
	e.closeSession()

	pc, err := e.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNegotiation, err)
	}

	s := &session{
		PeerSession: pc,
		role:        role,
	}

	e.session = s
	e.torndown = false

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			logrus.Info("Candidate gathering concluded")
			return
		}

		init := c.ToJSON()
		e.dispatch(func() { e.onLocalCandidate(s, init) })
	})

	pc.OnTrack(func(t *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		e.dispatch(func() { e.onRemoteTrack(s, t) })
	})

	pc.OnICEConnectionStateChange(func(cs webrtc.ICEConnectionState) {
		logrus.Infof("ICE Connection State has changed: %s", cs)
	})

	logrus.Infof("Created peer session as %s", role)

	return s, e.attachTracks(s)
}

func (e *Engine) attachTracks(s *session) error {
	if e.capturer == nil {
		return fmt.Errorf("%w: no capture device", ErrCaptureUnavailable)
	}

	tracks, err := e.capturer.Tracks()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCaptureUnavailable, err)
	}

	for _, t := range tracks {
		if _, err := s.AddTrack(t); err != nil {
			logrus.Errorf("Failed to add %s track: %s", t.Kind(), err)
		}
	}

	return nil
}

func (e *Engine) flushCandidates(s *session) {
	pending := s.pending
	s.pending = nil

	for _, c := range pending {
		if err := s.AddICECandidate(c); err != nil {
			logrus.Warnf("Failed to add buffered candidate: %s", err)
		}
	}
}

// live reports whether s is still the current session.
func (e *Engine) live(s *session) bool {
	return s == e.session && !s.closed
}

func (e *Engine) onLocalCandidate(s *session, c webrtc.ICECandidateInit) {
	if !e.live(s) {
		return
	}

	if err := e.sender.Send(pkg.NewCandidate(c)); err != nil {
		logrus.Errorf("Failed to send candidate: %s", err)
	}
}

func (e *Engine) onRemoteTrack(s *session, t *webrtc.TrackRemote) {
	if !e.live(s) {
		return
	}

	logrus.Infof("Received remote %s track %s", t.Kind(), t.ID())

	e.remote = t
	if e.onRemoteMedia != nil {
		e.onRemoteMedia(true)
	}
}

func (e *Engine) closeSession() {
	if s := e.session; s != nil {
		s.closed = true
		if err := s.Close(); err != nil {
			logrus.Errorf("Failed to close peer session: %s", err)
		}

		e.session = nil
	}

	if e.remote != nil {
		e.remote = nil
		if e.onRemoteMedia != nil {
			e.onRemoteMedia(false)
		}
	}
}
