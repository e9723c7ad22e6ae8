// Package message defines the JSON message exchanged with the native messaging host.
//
// Message is the "envelope" for every exchange. The client core treats it as an
// opaque JSON object: it never interprets individual fields, it only carries the
// parsed object between the wire and the caller.
package message

import (
	"encoding/json"
)

// Message is one parsed JSON object received from the host.
//
//   - On response: the object the host sent back for an outstanding request.
//   - On push:     an unsolicited object the host sent on its own.
type Message map[string]any

// Parse decodes text into a Message. The text must be a single JSON object;
// arrays, bare strings and numbers are rejected, matching the host protocol
// which only ever carries objects.
func Parse(text string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode serializes the message back to JSON text.
func (m Message) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
