package pkg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v3"
)

type MessageType string

const (
	MessageTypeWaiting        MessageType = "waiting"
	MessageTypeConnected      MessageType = "connected"
	MessageTypeOffer          MessageType = "offer"
	MessageTypeAnswer         MessageType = "answer"
	MessageTypeCandidate      MessageType = "ice-candidate"
	MessageTypeReady          MessageType = "ready"
	MessageTypeBlurPreference MessageType = "blur-preference"
	MessageTypeChat           MessageType = "chat"
	MessageTypeDisconnected   MessageType = "disconnected"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidMessage = errors.New("invalid message")
)

// SignalingMessage is exchanged between the relay and its clients.
// The Type field selects which of the payload fields is populated.
type SignalingMessage struct {
	Type MessageType `json:"type"`

	IsOfferer    *bool                      `json:"isOfferer,omitempty"`
	Offer        *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer       *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate    *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	WantsBlurOff *bool                      `json:"wantsBlurOff,omitempty"`
	Message      string                     `json:"message,omitempty"`
}

func NewWaiting() *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeWaiting}
}

func NewConnected(isOfferer bool) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeConnected, IsOfferer: &isOfferer}
}

func NewOffer(sd webrtc.SessionDescription) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeOffer, Offer: &sd}
}

func NewAnswer(sd webrtc.SessionDescription) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeAnswer, Answer: &sd}
}

func NewCandidate(c webrtc.ICECandidateInit) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeCandidate, Candidate: &c}
}

func NewReady() *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeReady}
}

func NewBlurPreference(wantsBlurOff bool) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeBlurPreference, WantsBlurOff: &wantsBlurOff}
}

func NewChat(text string) *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeChat, Message: text}
}

func NewDisconnected() *SignalingMessage {
	return &SignalingMessage{Type: MessageTypeDisconnected}
}

// Known reports whether t is one of the tags of the protocol.
func (t MessageType) Known() bool {
	switch t {
	case MessageTypeWaiting, MessageTypeConnected, MessageTypeOffer, MessageTypeAnswer,
		MessageTypeCandidate, MessageTypeReady, MessageTypeBlurPreference,
		MessageTypeChat, MessageTypeDisconnected:
		return true
	}

	return false
}

// PartnerScoped reports whether messages of type t are addressed to the
// current partner and lose their meaning once the pairing ends.
func (t MessageType) PartnerScoped() bool {
	switch t {
	case MessageTypeOffer, MessageTypeAnswer, MessageTypeCandidate,
		MessageTypeBlurPreference, MessageTypeChat, MessageTypeDisconnected:
		return true
	}

	return false
}

// Validate checks that the payload required by the tag is present.
func (msg *SignalingMessage) Validate() error {
	switch msg.Type {
	case MessageTypeConnected:
		if msg.IsOfferer == nil {
			return fmt.Errorf("%w: %s without isOfferer", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeOffer:
		if msg.Offer == nil {
			return fmt.Errorf("%w: %s without offer", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeAnswer:
		if msg.Answer == nil {
			return fmt.Errorf("%w: %s without answer", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeCandidate:
		if msg.Candidate == nil {
			return fmt.Errorf("%w: %s without candidate", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeBlurPreference:
		if msg.WantsBlurOff == nil {
			return fmt.Errorf("%w: %s without wantsBlurOff", ErrInvalidMessage, msg.Type)
		}
	case MessageTypeWaiting, MessageTypeReady, MessageTypeChat, MessageTypeDisconnected:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	return nil
}

func (msg *SignalingMessage) String() string {
	switch {
	case msg.IsOfferer != nil:
		return fmt.Sprintf("%s(isOfferer=%t)", msg.Type, *msg.IsOfferer)
	case msg.WantsBlurOff != nil:
		return fmt.Sprintf("%s(wantsBlurOff=%t)", msg.Type, *msg.WantsBlurOff)
	case msg.Candidate != nil:
		return fmt.Sprintf("%s(%s)", msg.Type, msg.Candidate.Candidate)
	default:
		return string(msg.Type)
	}
}

func (msg *SignalingMessage) Encode() ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a single frame. Messages with an unknown type are
// returned together with an error wrapping ErrUnknownType so callers can
// log and skip them.
func DecodeMessage(data []byte) (*SignalingMessage, error) {
	msg := &SignalingMessage{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMessage, err)
	}

	if err := msg.Validate(); err != nil {
		return msg, err
	}

	return msg, nil
}

// PeekType extracts the tag of a frame without validating its payload.
func PeekType(data []byte) MessageType {
	var hdr struct {
		Type MessageType `json:"type"`
	}

	if err := json.Unmarshal(data, &hdr); err != nil {
		return ""
	}

	return hdr.Type
}
