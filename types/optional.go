package types

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was omitted from a JSON payload from
// one that was explicitly set to null. It is meant for partial updates:
//
//	absent:   Set == false
//	null:     Set == true, Null == true
//	value:    Set == true, Null == false, Value holds it
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding value.
func Some[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Value: value}
}

// Null returns an Optional explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns nil for absent or null and a pointer to Value otherwise.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}
