package p24

import (
	"bytes"
	"encoding/json"
	"errors"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/infra/adapters/payment/p24/sign"
)

// TransactionNotification is the document the gateway posts to urlStatus once
// a payment settles. Nothing in it is trustworthy until Verify returns true.
type TransactionNotification struct {
	MerchantID   *int64  `json:"merchantId,omitempty"`
	PosID        *int64  `json:"posId,omitempty"`
	SessionID    *string `json:"sessionId,omitempty"`
	Amount       *int64  `json:"amount,omitempty"`
	OriginAmount *int64  `json:"originAmount,omitempty"`
	Currency     *string `json:"currency,omitempty"`
	OrderID      *int64  `json:"orderId,omitempty"`
	MethodID     *int64  `json:"methodId,omitempty"`
	Statement    *string `json:"statement,omitempty"`
	Sign         *string `json:"sign,omitempty"`
}

// wireNotification keeps the struct tags as the only key table and drops the
// UnmarshalJSON method.
type wireNotification TransactionNotification

// DecodeNotification decodes an inbound notification body. Keys the gateway
// left out stay nil; values of the wrong type are a *domain.DecodeError.
func DecodeNotification(body []byte) (TransactionNotification, error) {
	var n TransactionNotification
	if err := n.UnmarshalJSON(body); err != nil {
		return TransactionNotification{}, err
	}
	return n, nil
}

func (n *TransactionNotification) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return &domain.DecodeError{Err: errors.New("expected an object")}
	}
	var w wireNotification
	if err := json.Unmarshal(b, &w); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			return &domain.DecodeError{Field: te.Field, Err: err}
		}
		return &domain.DecodeError{Err: err}
	}
	*n = TransactionNotification(w)
	return nil
}

// Wire renders the notification as the gateway sends it, nil fields omitted.
func (n TransactionNotification) Wire() ([]byte, error) {
	return json.Marshal(wireNotification(n))
}

// ExpectedSign recomputes the signature with the merchant-held crc.
func (n TransactionNotification) ExpectedSign(crc string) string {
	return sign.Sign(
		sign.Field{Name: "merchantId", Value: sign.OptInt(n.MerchantID)},
		sign.Field{Name: "posId", Value: sign.OptInt(n.PosID)},
		sign.Field{Name: "sessionId", Value: sign.OptString(n.SessionID)},
		sign.Field{Name: "amount", Value: sign.OptInt(n.Amount)},
		sign.Field{Name: "originAmount", Value: sign.OptInt(n.OriginAmount)},
		sign.Field{Name: "currency", Value: sign.OptString(n.Currency)},
		sign.Field{Name: "orderId", Value: sign.OptInt(n.OrderID)},
		sign.Field{Name: "methodId", Value: sign.OptInt(n.MethodID)},
		sign.Field{Name: "statement", Value: sign.OptString(n.Statement)},
		sign.Field{Name: "crc", Value: sign.String(crc)},
	)
}

// Verify reports whether the inbound sign matches the one recomputed with crc.
// A missing sign never verifies.
func (n TransactionNotification) Verify(crc string) bool {
	if n.Sign == nil {
		return false
	}
	return sign.Equal(n.ExpectedSign(crc), *n.Sign)
}

// Signed returns a copy carrying the signature for crc. The sandbox tooling
// uses it to simulate gateway callbacks.
func (n TransactionNotification) Signed(crc string) TransactionNotification {
	s := n.ExpectedSign(crc)
	n.Sign = &s
	return n
}
