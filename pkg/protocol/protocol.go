// Package protocol defines the frames exchanged between vehicles and the fleet hub.
//
// Every websocket text frame carries one Envelope. A client sends EventAuth
// first and may then send any number of EventRequest frames. The hub answers
// with EventConnected or EventConnectError, and later with EventResponse or
// EventError for every request.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// EventAuth carries a Handshake. It must be the first client frame.
	EventAuth = "auth"
	// EventRequest carries a command array.
	EventRequest = "request"

	// EventConnected carries the authenticated vehicle.
	EventConnected = "connected"
	// EventConnectError carries the rejection message. The connection is closed after it.
	EventConnectError = "connect_error"
	// EventResponse carries a Response.
	EventResponse = "response"
	// EventError carries an error message for a failed request.
	EventError = "error"
)

// ErrMalformed is returned for frames that do not follow the protocol.
var ErrMalformed = errors.New("malformed frame")

// Envelope is the outer shape of every frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handshake is the payload of EventAuth.
type Handshake struct {
	ID string `json:"ID"`
}

// Response is the payload of EventResponse. Request echoes the original array.
type Response struct {
	Request  []any           `json:"request"`
	Response json.RawMessage `json:"response"`
}

// Request is a decoded EventRequest payload.
type Request struct {
	// Raw is the array as received, echoed back in the Response.
	Raw  []any
	Name string
	Args []string
}

// NewEnvelope marshals data into an Envelope for event.
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Encode returns the wire form of an envelope for event.
func Encode(event string, data any) ([]byte, error) {
	env, err := NewEnvelope(event, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses one frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformed)
	}
	return env, nil
}

// ParseHandshake decodes an EventAuth payload. A missing payload yields an empty ID.
func ParseHandshake(data json.RawMessage) (Handshake, error) {
	var hs Handshake
	if len(data) == 0 || string(data) == "null" {
		return hs, nil
	}
	if err := json.Unmarshal(data, &hs); err != nil {
		return Handshake{}, fmt.Errorf("%w: handshake: %v", ErrMalformed, err)
	}
	return hs, nil
}

// ParseRequest decodes an EventRequest payload. A bare string is treated as a
// one-element array. Every element must be a string.
func ParseRequest(data json.RawMessage) (Request, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		var single string
		if json.Unmarshal(data, &single) != nil {
			return Request{}, fmt.Errorf("%w: request must be an array of strings", ErrMalformed)
		}
		raw = []any{single}
	}
	if raw == nil {
		raw = []any{}
	}

	parts := make([]string, len(raw))
	for i, el := range raw {
		s, ok := el.(string)
		if !ok {
			return Request{}, fmt.Errorf("%w: request element %d must be a string, got %s", ErrMalformed, i, jsonKind(el))
		}
		parts[i] = s
	}

	req := Request{Raw: raw}
	if len(parts) > 0 {
		req.Name = parts[0]
		req.Args = parts[1:]
	}
	return req, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
