package file

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// The pool persists values as msgpack. Chosen over JSON because operation
// payloads are open maps holding integer amounts: msgpack round-trips integers
// and time.Time losslessly, JSON widens them to float64.

func encode(value any) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return data, nil
}

func decode(data []byte, out any) error {
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	return nil
}
