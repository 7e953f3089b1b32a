// Package hub fans live feed messages out to websocket clients.
package hub

import (
	"encoding/json"
	"fmt"
)

// Feed message types.
const (
	TypeInitial       = "initial"
	TypeUpdate        = "update"
	TypeRobotPosition = "robot_position"
	TypeScan          = "scan"
)

// Envelope is the JSON frame sent to clients.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode marshals an envelope for broadcast.
func Encode(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(Envelope{Type: msgType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("hub: failed to encode %s message: %w", msgType, err)
	}
	return data, nil
}
