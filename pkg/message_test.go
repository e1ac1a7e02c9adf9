package pkg

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pion/webrtc/v3"
)

func TestMessageRoundTrip(t *testing.T) {
	mid := "0"
	idx := uint16(0)

	msgs := []*SignalingMessage{
		NewWaiting(),
		NewConnected(true),
		NewConnected(false),
		NewOffer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\n"}),
		NewAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0\r\n"}),
		NewCandidate(webrtc.ICECandidateInit{
			Candidate:     "candidate:1 1 udp 2130706431 10.0.0.1 5000 typ host",
			SDPMid:        &mid,
			SDPMLineIndex: &idx,
		}),
		NewReady(),
		NewBlurPreference(false),
		NewBlurPreference(true),
		NewChat("hello éè"),
		NewDisconnected(),
	}

	for _, msg := range msgs {
		data, err := msg.Encode()
		if err != nil {
			t.Fatalf("Encode(%s): %v", msg, err)
		}

		got, err := DecodeMessage(data)
		if err != nil {
			t.Fatalf("DecodeMessage(%s): %v", data, err)
		}

		if !reflect.DeepEqual(got, msg) {
			t.Errorf("round trip of %s yields %#v, want %#v", data, got, msg)
		}
	}
}

func TestDecodeWireFormat(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"type":"connected","isOfferer":false}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if msg.IsOfferer == nil || *msg.IsOfferer {
		t.Fatalf("isOfferer=%v, want false", msg.IsOfferer)
	}

	msg, err = DecodeMessage([]byte(`{"type":"blur-preference","wantsBlurOff":true}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if !*msg.WantsBlurOff {
		t.Fatalf("wantsBlurOff=false, want true")
	}

	msg, err = DecodeMessage([]byte(`{"type":"offer","offer":{"type":"offer","sdp":"X"}}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if msg.Offer.Type != webrtc.SDPTypeOffer || msg.Offer.SDP != "X" {
		t.Fatalf("offer=%+v", msg.Offer)
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, tc := range []struct {
		data string
		want error
	}{
		{`{"type":"teleport"}`, ErrUnknownType},
		{`{}`, ErrUnknownType},
		{`{"type":"offer"}`, ErrInvalidMessage},
		{`{"type":"connected"}`, ErrInvalidMessage},
		{`{"type":"ice-candidate"}`, ErrInvalidMessage},
		{`[1, 2]`, ErrInvalidMessage},
	} {
		if _, err := DecodeMessage([]byte(tc.data)); !errors.Is(err, tc.want) {
			t.Errorf("DecodeMessage(%s) returned %v, want %v", tc.data, err, tc.want)
		}
	}
}

func TestPeekType(t *testing.T) {
	if got := PeekType([]byte(`{"type":"disconnected","extra":true}`)); got != MessageTypeDisconnected {
		t.Fatalf("PeekType=%q, want disconnected", got)
	}
	if got := PeekType([]byte(`garbage`)); got != "" {
		t.Fatalf("PeekType=%q, want empty", got)
	}
}

func TestPartnerScoped(t *testing.T) {
	for _, typ := range []MessageType{MessageTypeWaiting, MessageTypeConnected, MessageTypeReady} {
		if typ.PartnerScoped() {
			t.Errorf("%s is partner scoped", typ)
		}
	}

	for _, typ := range []MessageType{MessageTypeOffer, MessageTypeAnswer, MessageTypeCandidate,
		MessageTypeBlurPreference, MessageTypeChat, MessageTypeDisconnected} {
		if !typ.PartnerScoped() {
			t.Errorf("%s is not partner scoped", typ)
		}
	}
}
