package dbal

import (
	"encoding/json"
)

// Marshaler encodes a value to a byte array and back. JSON document columns
// go through one of these so the codec is swappable in a single place.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// NewMarshaler returns the default Marshaler, backed by encoding/json.
func NewMarshaler() Marshaler {
	return jsonMarshaler{}
}

type jsonMarshaler struct{}

func (jsonMarshaler) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonMarshaler) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
