package commsutil

import (
	"encoding/json"
	"fmt"
)

const codecLogPrefix = "commsutil:codec"

// EncodePayload serializes a message body to JSON.
func EncodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s - encode payload: %w", codecLogPrefix, err)
	}
	return data, nil
}

// DecodePayload deserializes a JSON message body into target.
func DecodePayload(data []byte, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("%s - decode payload: empty message", codecLogPrefix)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s - decode payload: %w", codecLogPrefix, err)
	}
	return nil
}
