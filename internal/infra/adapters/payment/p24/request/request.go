// Package request holds the signed request bodies sent to the Przelewy24 REST API.
//
// Every model carries the merchant CRC used as signature input. The CRC is
// never part of the wire document.
package request

import (
	"bytes"
	"encoding/json"

	"p24-gateway/internal/domain"
)

// Wire names of the fields shared by all requests.
const (
	keyMerchantID = "merchantId"
	keyPosID      = "posId"
	keySessionID  = "sessionId"
	keyAmount     = "amount"
	keyCurrency   = "currency"
	keyOrderID    = "orderId"
	keyCRC        = "crc"
)

type requirement struct {
	key     string
	present bool
}

func requireAll(rs ...requirement) error {
	for _, r := range rs {
		if !r.present {
			return &domain.ValidationError{Field: r.key}
		}
	}
	return nil
}

// marshal encodes v without HTML escaping so URLs keep their ampersands.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
