package payment

import (
	"context"
	"errors"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/domain/ports/adapter"
	"p24-gateway/internal/infra/adapters/payment/p24"
	"p24-gateway/internal/infra/adapters/payment/p24/request"
)

var _ adapter.PaymentGateway = (*P24Gateway)(nil)

// P24Merchant is the merchant-side data every transaction carries.
type P24Merchant struct {
	MerchantID int64
	PosID      int64
	ReturnURL  string // buyer lands here after paying
	StatusURL  string // gateway posts notifications here
	Country    string
	Language   string
	TimeLimit  int64 // minutes; zero keeps the gateway default
}

// P24Gateway implements adapter.PaymentGateway on top of the Przelewy24 client.
type P24Gateway struct {
	client   *p24.Client
	merchant P24Merchant
}

func NewP24Gateway(client *p24.Client, merchant P24Merchant) (*P24Gateway, error) {
	if client == nil {
		return nil, errors.New("p24 client is nil")
	}
	if merchant.MerchantID == 0 {
		return nil, errors.New("merchant id empty")
	}
	if merchant.PosID == 0 {
		merchant.PosID = merchant.MerchantID
	}
	if merchant.ReturnURL == "" {
		return nil, errors.New("return url empty")
	}
	if merchant.Country == "" {
		merchant.Country = "PL"
	}
	if merchant.Language == "" {
		merchant.Language = "pl"
	}
	return &P24Gateway{client: client, merchant: merchant}, nil
}

func (g *P24Gateway) Name() string { return "przelewy24" }

func (g *P24Gateway) Register(ctx context.Context, in adapter.RegisterInput) (string, string, error) {
	r := request.TransactionRegister{
		MerchantID:  g.merchant.MerchantID,
		PosID:       g.merchant.PosID,
		SessionID:   in.SessionID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Description: in.Description,
		Email:       in.Email,
		Country:     orDefault(in.Country, g.merchant.Country),
		Language:    orDefault(in.Language, g.merchant.Language),
		URLReturn:   g.merchant.ReturnURL,
	}
	if g.merchant.StatusURL != "" {
		u := g.merchant.StatusURL
		r.URLStatus = &u
	}
	if g.merchant.TimeLimit > 0 {
		tl := g.merchant.TimeLimit
		r.TimeLimit = &tl
	}
	out, err := g.client.RegisterTransaction(ctx, r)
	if err != nil {
		return "", "", err
	}
	token := out.Token()
	if token == "" {
		return "", "", &domain.DecodeError{Field: "data.token"}
	}
	return token, g.client.RedirectURL(token), nil
}

func (g *P24Gateway) ParseNotification(body []byte) (adapter.Notification, error) {
	n, ok, err := g.client.VerifyNotification(body)
	if err != nil {
		return adapter.Notification{}, err
	}
	return authenticated(n, ok)
}

func (g *P24Gateway) Confirm(ctx context.Context, n adapter.Notification) (bool, error) {
	out, err := g.client.VerifyTransaction(ctx, request.TransactionVerify{
		MerchantID: g.merchant.MerchantID,
		PosID:      g.merchant.PosID,
		SessionID:  n.SessionID,
		Amount:     n.Amount,
		Currency:   n.Currency,
		OrderID:    n.OrderID,
	})
	if err != nil {
		return false, err
	}
	return out.Succeeded(), nil
}

// authenticated converts a checked notification. Nothing is read from the
// payload unless the signature verified.
func authenticated(n p24.TransactionNotification, verified bool) (adapter.Notification, error) {
	if !verified {
		return adapter.Notification{}, domain.ErrInvalidSignature
	}
	switch {
	case n.SessionID == nil:
		return adapter.Notification{}, &domain.DecodeError{Field: "sessionId"}
	case n.OrderID == nil:
		return adapter.Notification{}, &domain.DecodeError{Field: "orderId"}
	case n.Amount == nil:
		return adapter.Notification{}, &domain.DecodeError{Field: "amount"}
	case n.Currency == nil:
		return adapter.Notification{}, &domain.DecodeError{Field: "currency"}
	}
	return adapter.Notification{
		SessionID:    *n.SessionID,
		OrderID:      *n.OrderID,
		Amount:       *n.Amount,
		OriginAmount: n.OriginAmount,
		Currency:     *n.Currency,
		MethodID:     n.MethodID,
		Statement:    n.Statement,
		Sign:         *n.Sign,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
