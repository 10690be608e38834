package request

import (
	"fmt"

	"p24-gateway/internal/infra/adapters/payment/p24/sign"
)

// TransactionVerify is the body of PUT /transaction/verify.
// OrderID is assigned by the gateway and arrives with the notification.
type TransactionVerify struct {
	MerchantID int64
	PosID      int64
	SessionID  string
	Amount     int64
	Currency   string
	OrderID    int64

	CRC string
}

type transactionVerifyWire struct {
	MerchantID int64  `json:"merchantId"`
	PosID      int64  `json:"posId"`
	OrderID    int64  `json:"orderId"`
	SessionID  string `json:"sessionId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Sign       string `json:"sign"`
}

func (r TransactionVerify) Validate() error {
	return requireAll(
		requirement{keyMerchantID, r.MerchantID != 0},
		requirement{keyPosID, r.PosID != 0},
		requirement{keySessionID, r.SessionID != ""},
		requirement{keyAmount, r.Amount > 0},
		requirement{keyCurrency, r.Currency != ""},
		requirement{keyOrderID, r.OrderID != 0},
		requirement{keyCRC, r.CRC != ""},
	)
}

// Sign computes the verify signature over
// sessionId, orderId, amount, currency, crc.
func (r TransactionVerify) Sign() string {
	return sign.Sign(
		sign.Field{Name: keySessionID, Value: sign.String(r.SessionID)},
		sign.Field{Name: keyOrderID, Value: sign.Int(r.OrderID)},
		sign.Field{Name: keyAmount, Value: sign.Int(r.Amount)},
		sign.Field{Name: keyCurrency, Value: sign.String(r.Currency)},
		sign.Field{Name: keyCRC, Value: sign.String(r.CRC)},
	)
}

func (r TransactionVerify) Wire() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	b, err := marshal(transactionVerifyWire{
		MerchantID: r.MerchantID,
		PosID:      r.PosID,
		OrderID:    r.OrderID,
		SessionID:  r.SessionID,
		Amount:     r.Amount,
		Currency:   r.Currency,
		Sign:       r.Sign(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode transaction verify: %w", err)
	}
	return b, nil
}
