package client

import (
	"fmt"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"
)

// PeerSession is the subset of *webrtc.PeerConnection used by the Engine.
type PeerSession interface {
	CreateOffer(options *webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(options *webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(desc webrtc.SessionDescription) error
	SetRemoteDescription(desc webrtc.SessionDescription) error
	RemoteDescription() *webrtc.SessionDescription
	SignalingState() webrtc.SignalingState
	ICEConnectionState() webrtc.ICEConnectionState
	AddICECandidate(candidate webrtc.ICECandidateInit) error
	AddTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error)

	OnICECandidate(f func(*webrtc.ICECandidate))
	OnTrack(f func(*webrtc.TrackRemote, *webrtc.RTPReceiver))
	OnICEConnectionStateChange(f func(webrtc.ICEConnectionState))

	Close() error
}

// SessionFactory creates a fresh peer session for every pairing.
type SessionFactory func() (PeerSession, error)

// Capturer provides the local media tracks.
type Capturer interface {
	Tracks() ([]webrtc.TrackLocal, error)
}

type SessionConfig struct {
	ICEServers []string

	// Optional range of local UDP ports used for ICE.
	UDPPortMin uint16
	UDPPortMax uint16
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ICEServers: []string{"stun:stun.l.google.com:19302"},
	}
}

// NewSessionFactory prepares a pion API with the default codecs and returns
// a factory creating peer connections from it.
func NewSessionFactory(cfg SessionConfig) (SessionFactory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	se := webrtc.SettingEngine{
		LoggerFactory: NewLoggerFactory(logrus.StandardLogger()),
	}

	if cfg.UDPPortMin != 0 || cfg.UDPPortMax != 0 {
		if err := se.SetEphemeralUDPPortRange(cfg.UDPPortMin, cfg.UDPPortMax); err != nil {
			return nil, fmt.Errorf("failed to set udp port range: %w", err)
		}
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithSettingEngine(se))

	config := webrtc.Configuration{}
	if len(cfg.ICEServers) > 0 {
		config.ICEServers = []webrtc.ICEServer{
			{
				URLs: cfg.ICEServers,
			},
		}
	}

	return func() (PeerSession, error) {
		pc, err := api.NewPeerConnection(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create peer connection: %w", err)
		}

		return pc, nil
	}, nil
}
