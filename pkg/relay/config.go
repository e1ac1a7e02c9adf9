package relay

import "time"

type Config struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration

	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration

	// Maximum message size allowed from peer.
	MaxMessageSize int64

	// Number of frames queued per connection before it is considered stuck.
	SendBuffer int
}

func DefaultConfig() Config {
	pongWait := 60 * time.Second

	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     256,
	}
}
