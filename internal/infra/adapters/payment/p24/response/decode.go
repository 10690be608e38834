// Package response decodes Przelewy24 REST API responses.
//
// Every model is decoded through an explicit table of gateway keys. Leaf
// fields are pointers so a null or absent key stays distinguishable from a
// zero value. Models encode back to the same wire names with encoding/json.
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"p24-gateway/internal/domain"
)

// envelopeKey wraps some payment-methods responses.
const envelopeKey = "response"

type object map[string]json.RawMessage

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func decodeObject(raw []byte) (object, error) {
	if firstByte(raw) != '{' {
		return nil, &domain.DecodeError{Err: errors.New("expected an object")}
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	return o, nil
}

// stringField pairs a gateway key with its destination. Tables of these are
// decoded in order so the first bad key is the one reported.
type stringField struct {
	key string
	dst **string
}

// field decodes o[key] into dst. Absent and null keys leave dst untouched
// unless required is set.
func (o object) field(key string, dst any, required bool) error {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		if required {
			return &domain.DecodeError{Field: key}
		}
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return at(key, err)
	}
	return nil
}

// list decodes a required array under key, element by element.
func list[T any, PT interface {
	*T
	json.Unmarshaler
}](o object, key string) ([]T, error) {
	var raws []json.RawMessage
	if err := o.field(key, &raws, true); err != nil {
		return nil, err
	}
	out, err := decodeEach[T, PT](raws)
	if err != nil {
		return nil, at(key, err)
	}
	return out, nil
}

func decodeEach[T any, PT interface {
	*T
	json.Unmarshaler
}](raws []json.RawMessage) ([]T, error) {
	out := make([]T, len(raws))
	for i, raw := range raws {
		if err := PT(&out[i]).UnmarshalJSON(raw); err != nil {
			return nil, at(fmt.Sprintf("[%d]", i), err)
		}
	}
	return out, nil
}

// at prefixes the failing key path of err with key.
func at(key string, err error) error {
	var de *domain.DecodeError
	if errors.As(err, &de) {
		path := key
		switch {
		case de.Field == "":
		case de.Field[0] == '[':
			path += de.Field
		default:
			path += "." + de.Field
		}
		return &domain.DecodeError{Field: path, Err: de.Err}
	}
	return &domain.DecodeError{Field: key, Err: err}
}

// Decode interprets a successful response body. A top-level array decodes
// element-wise; an object holding a "response" envelope decodes the envelope;
// any other object decodes as a single document. One failing element fails
// the whole body.
func Decode[T any, PT interface {
	*T
	json.Unmarshaler
}](body []byte) ([]T, error) {
	if !json.Valid(body) {
		return nil, &domain.DecodeError{Err: errors.New("malformed JSON body")}
	}
	switch firstByte(body) {
	case '[':
		return decodeArray[T, PT](body)
	case '{':
		o, err := decodeObject(body)
		if err != nil {
			return nil, err
		}
		if env, ok := o[envelopeKey]; ok && !isNull(env) {
			out, err := decodeDocument[T, PT](env)
			if err != nil {
				return nil, at(envelopeKey, err)
			}
			return out, nil
		}
		var v T
		if err := PT(&v).UnmarshalJSON(body); err != nil {
			return nil, err
		}
		return []T{v}, nil
	}
	return nil, &domain.DecodeError{Err: errors.New("expected an object or an array")}
}

func decodeDocument[T any, PT interface {
	*T
	json.Unmarshaler
}](raw []byte) ([]T, error) {
	if firstByte(raw) == '[' {
		return decodeArray[T, PT](raw)
	}
	var v T
	if err := PT(&v).UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return []T{v}, nil
}

func decodeArray[T any, PT interface {
	*T
	json.Unmarshaler
}](raw []byte) ([]T, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	return decodeEach[T, PT](raws)
}

// stringOrBool accepts a JSON string, or a JSON boolean kept as its literal text.
type stringOrBool string

func (s *stringOrBool) UnmarshalJSON(b []byte) error {
	switch firstByte(b) {
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = stringOrBool(fmt.Sprint(v))
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = stringOrBool(v)
	return nil
}
