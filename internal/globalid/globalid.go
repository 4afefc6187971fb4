// Package globalid implements the Relay global-ID wire format of §6: base64
// of a JSON object naming a GraphQL typename and a field->value map.
package globalid

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// GlobalID is the decoded form of a Relay `id`.
type GlobalID struct {
	TypeName string         `json:"typename"`
	ID       map[string]any `json:"id"`
}

// Encode produces the opaque cursor string for g.
func Encode(g GlobalID) (string, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal global id: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses an opaque cursor string back into a GlobalID. Round-trips
// with Encode per §8 testable property #4.
func Decode(s string) (GlobalID, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return GlobalID{}, fmt.Errorf("decode global id base64: %w", err)
	}
	var g GlobalID
	if err := json.Unmarshal(raw, &g); err != nil {
		return GlobalID{}, fmt.Errorf("decode global id json: %w", err)
	}
	return g, nil
}
