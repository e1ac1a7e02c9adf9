package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/webrtc/v3"
	"github.com/stv0g/pion-roulette/pkg/client"
)

// syntheticCapturer stands in for a camera and microphone. Its tracks are
// negotiated like real ones but never carry samples.
type syntheticCapturer struct {
	disabled bool
}

func (c *syntheticCapturer) Tracks() ([]webrtc.TrackLocal, error) {
	if c.disabled {
		return nil, errors.New("capture disabled")
	}

	video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "roulette")
	if err != nil {
		return nil, err
	}

	audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "roulette")
	if err != nil {
		return nil, err
	}

	return []webrtc.TrackLocal{video, audio}, nil
}

type consoleRenderer struct {
	out  io.Writer
	last *client.View
}

func (r *consoleRenderer) Render(v client.View) {
	if r.last != nil && *r.last == v {
		return
	}
	r.last = &v

	blur := "blurred"
	if v.Reveal {
		blur = "revealed"
	}

	media := "no partner video"
	if v.RemoteMedia {
		media = "receiving partner video"
	}

	fmt.Fprintf(r.out, "* %s, %s\n", media, blur)
}

func (r *consoleRenderer) ShowChat(text string) {
	fmt.Fprintf(r.out, "> %s\n", text)
}

func (r *consoleRenderer) ShowStatus(status string) {
	fmt.Fprintf(r.out, "* %s\n", status)
}
