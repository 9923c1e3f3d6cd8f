package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList is a list column that may be stored either as a JSON-encoded
// string ("[\"a\",\"b\"]") or as a native JSON array. Both forms decode to the
// same value, and decoding an already-decoded list is a no-op. Content that
// is not a JSON list decodes to an empty list.
type JSONList[T any] []T

// Scan implements sql.Scanner.
func (l *JSONList[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
	case []byte:
		*l = decodeJSONList[T](v)
	case string:
		*l = decodeJSONList[T]([]byte(v))
	case []T:
		*l = append(JSONList[T]{}, v...)
	default:
		return fmt.Errorf("json list: unsupported source type %T", src)
	}
	return nil
}

// Value implements driver.Valuer. Lists are always written as a JSON array
// string so both stores see the same encoding.
func (l JSONList[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(l.orEmpty())
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// UnmarshalJSON accepts an array, a string holding an encoded array, or null.
func (l *JSONList[T]) UnmarshalJSON(data []byte) error {
	*l = decodeJSONList[T](data)
	return nil
}

// MarshalJSON always emits an array, never null.
func (l JSONList[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.orEmpty())
}

func (l JSONList[T]) orEmpty() []T {
	if l == nil {
		return []T{}
	}
	return []T(l)
}

func decodeJSONList[T any](data []byte) JSONList[T] {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return JSONList[T]{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		if items == nil {
			return JSONList[T]{}
		}
		return JSONList[T](items)
	}

	// Double-encoded: a JSON string whose contents are the array.
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		return decodeJSONList[T]([]byte(encoded))
	}

	return JSONList[T]{}
}
