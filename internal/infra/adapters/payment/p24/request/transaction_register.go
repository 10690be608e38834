package request

import (
	"fmt"

	"p24-gateway/internal/infra/adapters/payment/p24/sign"
)

// TransactionRegister is the body of POST /transaction/register.
// Pointer fields are optional and left out of the wire document when nil.
type TransactionRegister struct {
	MerchantID  int64
	PosID       int64
	SessionID   string
	Amount      int64 // minor units
	Currency    string
	Description string
	Email       string
	Country     string
	Language    string
	URLReturn   string

	Client           *string
	Address          *string
	Zip              *string
	City             *string
	Phone            *string
	Method           *int64
	URLStatus        *string
	TimeLimit        *int64
	Channel          *int64
	WaitForResult    *bool
	RegulationAccept *bool
	Shipping         *int64
	TransferLabel    *string
	MobileLib        *int64
	SDKVersion       *string
	Encoding         *string
	MethodRefID      *string

	CRC string
}

type transactionRegisterWire struct {
	MerchantID       int64   `json:"merchantId"`
	PosID            int64   `json:"posId"`
	SessionID        string  `json:"sessionId"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Description      string  `json:"description"`
	Email            string  `json:"email"`
	Client           *string `json:"client,omitempty"`
	Address          *string `json:"address,omitempty"`
	Zip              *string `json:"zip,omitempty"`
	City             *string `json:"city,omitempty"`
	Country          string  `json:"country"`
	Phone            *string `json:"phone,omitempty"`
	Language         string  `json:"language"`
	Method           *int64  `json:"method,omitempty"`
	URLReturn        string  `json:"urlReturn"`
	URLStatus        *string `json:"urlStatus,omitempty"`
	TimeLimit        *int64  `json:"timeLimit,omitempty"`
	Channel          *int64  `json:"channel,omitempty"`
	WaitForResult    *bool   `json:"waitForResult,omitempty"`
	RegulationAccept *bool   `json:"regulationAccept,omitempty"`
	Shipping         *int64  `json:"shipping,omitempty"`
	TransferLabel    *string `json:"transferLabel,omitempty"`
	MobileLib        *int64  `json:"mobileLib,omitempty"`
	SDKVersion       *string `json:"sdkVersion,omitempty"`
	Sign             string  `json:"sign"`
	Encoding         *string `json:"encoding,omitempty"`
	MethodRefID      *string `json:"methodRefId,omitempty"`
}

// Validate returns a *domain.ValidationError naming the first empty required field.
func (r TransactionRegister) Validate() error {
	return requireAll(
		requirement{keyMerchantID, r.MerchantID != 0},
		requirement{keyPosID, r.PosID != 0},
		requirement{keySessionID, r.SessionID != ""},
		requirement{keyAmount, r.Amount > 0},
		requirement{keyCurrency, r.Currency != ""},
		requirement{"description", r.Description != ""},
		requirement{"email", r.Email != ""},
		requirement{"country", r.Country != ""},
		requirement{"language", r.Language != ""},
		requirement{"urlReturn", r.URLReturn != ""},
		requirement{keyCRC, r.CRC != ""},
	)
}

// Sign computes the register signature over
// sessionId, merchantId, amount, currency, crc.
func (r TransactionRegister) Sign() string {
	return sign.Sign(
		sign.Field{Name: keySessionID, Value: sign.String(r.SessionID)},
		sign.Field{Name: keyMerchantID, Value: sign.Int(r.MerchantID)},
		sign.Field{Name: keyAmount, Value: sign.Int(r.Amount)},
		sign.Field{Name: keyCurrency, Value: sign.String(r.Currency)},
		sign.Field{Name: keyCRC, Value: sign.String(r.CRC)},
	)
}

// Wire validates the request and renders the signed JSON body.
func (r TransactionRegister) Wire() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	b, err := marshal(transactionRegisterWire{
		MerchantID:       r.MerchantID,
		PosID:            r.PosID,
		SessionID:        r.SessionID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Description:      r.Description,
		Email:            r.Email,
		Client:           r.Client,
		Address:          r.Address,
		Zip:              r.Zip,
		City:             r.City,
		Country:          r.Country,
		Phone:            r.Phone,
		Language:         r.Language,
		Method:           r.Method,
		URLReturn:        r.URLReturn,
		URLStatus:        r.URLStatus,
		TimeLimit:        r.TimeLimit,
		Channel:          r.Channel,
		WaitForResult:    r.WaitForResult,
		RegulationAccept: r.RegulationAccept,
		Shipping:         r.Shipping,
		TransferLabel:    r.TransferLabel,
		MobileLib:        r.MobileLib,
		SDKVersion:       r.SDKVersion,
		Sign:             r.Sign(),
		Encoding:         r.Encoding,
		MethodRefID:      r.MethodRefID,
	})
	if err != nil {
		return nil, fmt.Errorf("encode transaction register: %w", err)
	}
	return b, nil
}
