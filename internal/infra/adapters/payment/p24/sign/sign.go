// Package sign implements the Przelewy24 signature canonicalization.
//
// A signature is the lowercase hex SHA-384 digest of a compact JSON object
// whose keys and their order are fixed per operation. Null values stay in
// the object as JSON null. Strings are emitted with slashes and non-ASCII
// characters unescaped, matching the gateway's own encoder.
package sign

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"unicode/utf8"
)

type kind uint8

const (
	kindNull kind = iota
	kindString
	kindInt
	kindBool
)

// Value is a scalar that can take part in a signature.
// The zero Value is JSON null.
type Value struct {
	kind kind
	s    string
	i    int64
	b    bool
}

func Null() Value            { return Value{} }
func String(s string) Value  { return Value{kind: kindString, s: s} }
func Int(i int64) Value      { return Value{kind: kindInt, i: i} }
func Bool(b bool) Value      { return Value{kind: kindBool, b: b} }
func (v Value) IsNull() bool { return v.kind == kindNull }

// OptString maps a nil pointer to null.
func OptString(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// OptInt maps a nil pointer to null.
func OptInt(i *int64) Value {
	if i == nil {
		return Null()
	}
	return Int(*i)
}

// Field is one entry of the ordered signing subset. Name is the gateway key.
type Field struct {
	Name  string
	Value Value
}

// Canonical renders fields as a compact JSON object, in the order given.
func Canonical(fields ...Field) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, '{')
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendString(buf, f.Name)
		buf = append(buf, ':')
		buf = appendValue(buf, f.Value)
	}
	return append(buf, '}')
}

// Sign returns the 96 character lowercase hex SHA-384 of Canonical(fields).
func Sign(fields ...Field) string {
	sum := sha512.Sum384(Canonical(fields...))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two signatures are identical. Comparison is exact
// and case-sensitive.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func appendValue(buf []byte, v Value) []byte {
	switch v.kind {
	case kindString:
		return appendString(buf, v.s)
	case kindInt:
		return strconv.AppendInt(buf, v.i, 10)
	case kindBool:
		return strconv.AppendBool(buf, v.b)
	default:
		return append(buf, "null"...)
	}
}

const hexDigits = "0123456789abcdef"

func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				buf = append(buf, '\\', c)
			case c == '\b':
				buf = append(buf, '\\', 'b')
			case c == '\f':
				buf = append(buf, '\\', 'f')
			case c == '\n':
				buf = append(buf, '\\', 'n')
			case c == '\r':
				buf = append(buf, '\\', 'r')
			case c == '\t':
				buf = append(buf, '\\', 't')
			case c < 0x20:
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			default:
				buf = append(buf, c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf = append(buf, "\ufffd"...)
		} else {
			buf = append(buf, s[i:i+size]...)
		}
		i += size
	}
	return append(buf, '"')
}
