// Package streaming defines the JSON envelopes exchanged over websockets:
// the trace stream sent to a collector and the preview stream between the
// host and a browser viewer.
package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/moonlitstudios/backlot/pkg/core"
)

// Trace stream message types.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeFrameSample  = "frame_sample"
	TypeWorldEvent   = "world_event"
	TypeAck          = "ack"
)

// Preview stream message types.
const (
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeInput = "input"
)

// ProtocolVersion is sent in the preview hello.
const ProtocolVersion = 1

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload opens a trace session.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}

// EndSessionPayload closes a trace session.
type EndSessionPayload struct {
	Outcome core.Outcome `json:"outcome"`
}

// Size is a viewport size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HelloPayload is the first message a preview client receives.
type HelloPayload struct {
	Version  int  `json:"version"`
	Viewport Size `json:"viewport"`
	TickRate int  `json:"tickRate"`
}

// FramePayload carries one rendered draw list.
type FramePayload struct {
	Tick     uint64          `json:"tick"`
	Darkness float64         `json:"darkness"`
	Commands json.RawMessage `json:"commands"`
}

// InputPayload is a normalized control vector from the viewer.
type InputPayload struct {
	Steer  float64 `json:"steer"`
	Thrust bool    `json:"thrust"`
	Brake  bool    `json:"brake"`
	Press  bool    `json:"press,omitempty"`
	Select bool    `json:"select,omitempty"`
	Back   bool    `json:"back,omitempty"`
	Scroll int     `json:"scroll,omitempty"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Decode unmarshals an envelope's payload into v after checking its type.
func Decode(env Envelope, msgType string, v any) error {
	if env.Type != msgType {
		return fmt.Errorf("expected %s message, got %q", msgType, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", msgType, err)
	}
	return nil
}
