package client

import "errors"

var (
	// ErrCaptureUnavailable is reported when local media could not be
	// acquired. Negotiation continues without local tracks.
	ErrCaptureUnavailable = errors.New("capture unavailable")

	// ErrChannelUnavailable is returned by operations which need an open
	// signaling channel.
	ErrChannelUnavailable = errors.New("signaling channel unavailable")

	// ErrGaveUp is returned by SignalingClient.Run when reconnecting failed
	// more often than configured.
	ErrGaveUp = errors.New("gave up reconnecting")

	// ErrNegotiation wraps failures of the peer session while exchanging
	// descriptions or candidates.
	ErrNegotiation = errors.New("negotiation failed")

	// ErrStaleSignal marks messages which do not fit the current
	// negotiation state and have been discarded.
	ErrStaleSignal = errors.New("stale signal")

	// ErrPeerLost is reported when the partner went away.
	ErrPeerLost = errors.New("peer lost")
)
