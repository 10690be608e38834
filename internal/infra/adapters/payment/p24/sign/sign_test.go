//go:build !integration

package sign_test

import (
	"crypto/sha512"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"p24-gateway/internal/infra/adapters/payment/p24/sign"
)

func sha384Hex(s string) string {
	sum := sha512.Sum384([]byte(s))
	return hex.EncodeToString(sum[:])
}

func registerFields(sessionID string, merchantID, amount int64, currency, crc string) []sign.Field {
	return []sign.Field{
		{Name: "sessionId", Value: sign.String(sessionID)},
		{Name: "merchantId", Value: sign.Int(merchantID)},
		{Name: "amount", Value: sign.Int(amount)},
		{Name: "currency", Value: sign.String(currency)},
		{Name: "crc", Value: sign.String(crc)},
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name   string
		fields []sign.Field
		want   string
	}{
		{
			name:   "keeps field order",
			fields: registerFields("s1", 123456, 10000, "PLN", "k"),
			want:   `{"sessionId":"s1","merchantId":123456,"amount":10000,"currency":"PLN","crc":"k"}`,
		},
		{
			name: "null stays in the object",
			fields: []sign.Field{
				{Name: "statement", Value: sign.Null()},
				{Name: "methodId", Value: sign.OptInt(nil)},
				{Name: "currency", Value: sign.OptString(nil)},
			},
			want: `{"statement":null,"methodId":null,"currency":null}`,
		},
		{
			name:   "empty subset",
			fields: nil,
			want:   `{}`,
		},
		{
			name: "slashes and unicode are not escaped",
			fields: []sign.Field{
				{Name: "statement", Value: sign.String("Zamówienie 12/2024 <ok> & żółw")},
			},
			want: `{"statement":"Zamówienie 12/2024 <ok> & żółw"}`,
		},
		{
			name: "quotes and control characters are escaped",
			fields: []sign.Field{
				{Name: "s", Value: sign.String("a\"b\\c\nd\te\x01")},
			},
			want: `{"s":"a\"b\\c\nd\te\u0001"}`,
		},
		{
			name: "negative integers and booleans",
			fields: []sign.Field{
				{Name: "a", Value: sign.Int(-5)},
				{Name: "b", Value: sign.Bool(true)},
			},
			want: `{"a":-5,"b":true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, string(sign.Canonical(tt.fields...)))
		})
	}
}

func TestSign(t *testing.T) {
	hex96 := regexp.MustCompile(`^[0-9a-f]{96}$`)

	t.Run("matches sha384 of the canonical document", func(t *testing.T) {
		got := sign.Sign(registerFields("s1", 123456, 10000, "PLN", "k")...)
		want := sha384Hex(`{"sessionId":"s1","merchantId":123456,"amount":10000,"currency":"PLN","crc":"k"}`)
		require.Equal(t, want, got)
		require.Regexp(t, hex96, got)
	})

	t.Run("is deterministic", func(t *testing.T) {
		a := sign.Sign(registerFields("s1", 1, 2, "PLN", "k")...)
		b := sign.Sign(registerFields("s1", 1, 2, "PLN", "k")...)
		require.Equal(t, a, b)
	})

	t.Run("changes with every subset field", func(t *testing.T) {
		base := sign.Sign(registerFields("s1", 1, 2, "PLN", "k")...)
		variants := [][]sign.Field{
			registerFields("s2", 1, 2, "PLN", "k"),
			registerFields("s1", 9, 2, "PLN", "k"),
			registerFields("s1", 1, 3, "PLN", "k"),
			registerFields("s1", 1, 2, "EUR", "k"),
			registerFields("s1", 1, 2, "PLN", "other"),
		}
		for _, v := range variants {
			require.NotEqual(t, base, sign.Sign(v...))
		}
	})

	t.Run("order is part of the digest", func(t *testing.T) {
		f := registerFields("s1", 1, 2, "PLN", "k")
		swapped := []sign.Field{f[1], f[0], f[2], f[3], f[4]}
		require.NotEqual(t, sign.Sign(f...), sign.Sign(swapped...))
	})
}

func TestEqual(t *testing.T) {
	s := sign.Sign(registerFields("s1", 1, 2, "PLN", "k")...)
	require.True(t, sign.Equal(s, s))
	require.False(t, sign.Equal(s, ""))
	require.False(t, sign.Equal(s, s[:95]))

	upper := []byte(s)
	for i, c := range upper {
		if c >= 'a' && c <= 'f' {
			upper[i] = c - 'a' + 'A'
		}
	}
	require.False(t, sign.Equal(s, string(upper)))
}
