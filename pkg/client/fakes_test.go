package client

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stv0g/pion-roulette/pkg"
)

var errMalformed = errors.New("malformed session description")

// fakeSession mimics the signaling state machine of a peer connection and
// treats descriptions as opaque values.
type fakeSession struct {
	mu sync.Mutex

	offerSDP  string
	answerSDP string

	state      webrtc.SignalingState
	local      *webrtc.SessionDescription
	remote     *webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	tracks     []webrtc.TrackLocal
	closed     bool

	onCandidate func(*webrtc.ICECandidate)
	onTrack     func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
}

func newFakeSession(offerSDP, answerSDP string) *fakeSession {
	return &fakeSession{
		offerSDP:  offerSDP,
		answerSDP: answerSDP,
		state:     webrtc.SignalingStateStable,
	}
}

func (f *fakeSession) CreateOffer(*webrtc.OfferOptions) (webrtc.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return webrtc.SessionDescription{}, errors.New("closed")
	}

	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: f.offerSDP}, nil
}

func (f *fakeSession) CreateAnswer(*webrtc.AnswerOptions) (webrtc.SessionDescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != webrtc.SignalingStateHaveRemoteOffer {
		return webrtc.SessionDescription{}, fmt.Errorf("cannot answer in state %s", f.state)
	}

	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: f.answerSDP}, nil
}

func (f *fakeSession) SetLocalDescription(sd webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return errors.New("closed")
	case sd.Type == webrtc.SDPTypeOffer && f.state == webrtc.SignalingStateStable:
		f.state = webrtc.SignalingStateHaveLocalOffer
	case sd.Type == webrtc.SDPTypeAnswer && f.state == webrtc.SignalingStateHaveRemoteOffer:
		f.state = webrtc.SignalingStateStable
	default:
		return fmt.Errorf("cannot set local %s in state %s", sd.Type, f.state)
	}

	f.local = &sd
	return nil
}

func (f *fakeSession) SetRemoteDescription(sd webrtc.SessionDescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.closed:
		return errors.New("closed")
	case sd.SDP == "malformed":
		return errMalformed
	case sd.Type == webrtc.SDPTypeOffer && f.state == webrtc.SignalingStateStable:
		f.state = webrtc.SignalingStateHaveRemoteOffer
	case sd.Type == webrtc.SDPTypeAnswer && f.state == webrtc.SignalingStateHaveLocalOffer:
		f.state = webrtc.SignalingStateStable
	default:
		return fmt.Errorf("cannot set remote %s in state %s", sd.Type, f.state)
	}

	f.remote = &sd
	return nil
}

func (f *fakeSession) RemoteDescription() *webrtc.SessionDescription {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.remote
}

func (f *fakeSession) SignalingState() webrtc.SignalingState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakeSession) ICEConnectionState() webrtc.ICEConnectionState {
	return webrtc.ICEConnectionStateNew
}

func (f *fakeSession) AddICECandidate(c webrtc.ICECandidateInit) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.remote == nil {
		return errors.New("remote description not set")
	}

	f.candidates = append(f.candidates, c)
	return nil
}

func (f *fakeSession) AddTrack(t webrtc.TrackLocal) (*webrtc.RTPSender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tracks = append(f.tracks, t)
	return nil, nil
}

func (f *fakeSession) OnICECandidate(cb func(*webrtc.ICECandidate)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.onCandidate = cb
}

func (f *fakeSession) OnTrack(cb func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.onTrack = cb
}

func (f *fakeSession) OnICEConnectionStateChange(func(webrtc.ICEConnectionState)) {}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.state = webrtc.SignalingStateClosed
	return nil
}

func (f *fakeSession) emitCandidate(c *webrtc.ICECandidate) {
	f.mu.Lock()
	cb := f.onCandidate
	f.mu.Unlock()

	cb(c)
}

func (f *fakeSession) emitTrack() {
	f.mu.Lock()
	cb := f.onTrack
	f.mu.Unlock()

	cb(&webrtc.TrackRemote{}, nil)
}

func (f *fakeSession) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func (f *fakeSession) appliedCandidates() []webrtc.ICECandidateInit {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]webrtc.ICECandidateInit{}, f.candidates...)
}

type fakeFactory struct {
	mu sync.Mutex

	offerSDP  string
	answerSDP string
	err       error
	sessions  []*fakeSession
}

func (f *fakeFactory) New() (PeerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	s := newFakeSession(f.offerSDP, f.answerSDP)
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeFactory) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sessions) == 0 {
		return nil
	}
	return f.sessions[len(f.sessions)-1]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sessions)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*pkg.SignalingMessage
}

func (s *fakeSender) Send(msg *pkg.SignalingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) types() []pkg.MessageType {
	s.mu.Lock()
	defer s.mu.Unlock()

	types := []pkg.MessageType{}
	for _, msg := range s.sent {
		types = append(types, msg.Type)
	}
	return types
}

func (s *fakeSender) last() *pkg.SignalingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

type fakeCapturer struct {
	tracks []webrtc.TrackLocal
	err    error
}

func (c *fakeCapturer) Tracks() ([]webrtc.TrackLocal, error) {
	return c.tracks, c.err
}

func newVideoCapturer(t *testing.T) *fakeCapturer {
	t.Helper()

	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "test")
	if err != nil {
		t.Fatalf("NewTrackLocalStaticSample: %v", err)
	}

	return &fakeCapturer{tracks: []webrtc.TrackLocal{track}}
}

type fakeRenderer struct {
	mu     sync.Mutex
	views  []View
	chats  []string
	status []string
}

func (r *fakeRenderer) Render(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.views = append(r.views, v)
}

func (r *fakeRenderer) ShowChat(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chats = append(r.chats, text)
}

func (r *fakeRenderer) ShowStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = append(r.status, status)
}

func (r *fakeRenderer) lastView() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.views) == 0 {
		return View{}
	}
	return r.views[len(r.views)-1]
}

func (r *fakeRenderer) chatLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.chats...)
}

func expectSent(t *testing.T, s *fakeSender, want ...pkg.MessageType) {
	t.Helper()

	got := s.types()
	if len(got) != len(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sent %v, want %v", got, want)
		}
	}
}
