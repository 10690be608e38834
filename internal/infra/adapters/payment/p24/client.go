// Package p24 is a client for the Przelewy24 REST API v1.
//
// A Client signs outgoing transaction requests with the merchant CRC, sends
// them through a Transport with HTTP basic auth, and decodes typed responses.
// It also verifies the notifications the gateway posts back. A Client holds
// only immutable configuration and is safe for concurrent use.
package p24

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/infra/adapters/payment/p24/request"
	"p24-gateway/internal/infra/adapters/payment/p24/response"
)

const (
	SandboxURL    = "https://sandbox.przelewy24.pl/api/v1"
	ProductionURL = "https://secure.przelewy24.pl/api/v1"

	DefaultTimeout  = 30 * time.Second
	DefaultEncoding = "UTF-8"
)

// Operation names reported to the Observer.
const (
	OpRegister       = "register"
	OpVerify         = "verify"
	OpPaymentMethods = "payment_methods"
	OpTestAccess     = "test_access"
)

// Observer receives the outcome of every gateway call.
type Observer interface {
	ObserveCall(operation string, elapsed time.Duration, err error)
}

type Client struct {
	user     string
	secretID string
	crc      string

	baseURL   string
	timeout   time.Duration
	encoding  string
	debug     bool
	transport Transport
	observer  Observer
	log       zerolog.Logger
}

// Przelewy24 is the former name of Client.
//
// Deprecated: use Client.
type Przelewy24 = Client

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout bounds every call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = *l
		}
	}
}

// WithEncoding sets the encoding applied to register requests that carry none.
// An empty value stops the client from filling it in.
func WithEncoding(enc string) Option {
	return func(c *Client) { c.encoding = enc }
}

// WithDebug logs every exchange at debug level, credentials excluded.
func WithDebug(on bool) Option {
	return func(c *Client) { c.debug = on }
}

// New returns a Client for merchant user with API key secretID and signing key crc.
func New(user, secretID, crc string, opts ...Option) *Client {
	c := &Client{
		user:     user,
		secretID: secretID,
		crc:      crc,
		baseURL:  SandboxURL,
		timeout:  DefaultTimeout,
		encoding: DefaultEncoding,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(nil)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// RegisterTransaction registers r and returns the token for the buyer redirect.
// The client's crc is injected into r before signing.
func (c *Client) RegisterTransaction(ctx context.Context, r request.TransactionRegister) (*response.TransactionRegister, error) {
	r.CRC = c.crc
	if r.Encoding == nil && c.encoding != "" {
		enc := c.encoding
		r.Encoding = &enc
	}
	body, err := r.Wire()
	if err != nil {
		return nil, err
	}
	return call[response.TransactionRegister](ctx, c, OpRegister, http.MethodPost, c.endpoint("/transaction/register", ""), body)
}

// VerifyTransaction confirms a notified transaction. It must be called before
// the gateway settles the funds.
func (c *Client) VerifyTransaction(ctx context.Context, r request.TransactionVerify) (*response.TransactionVerify, error) {
	r.CRC = c.crc
	body, err := r.Wire()
	if err != nil {
		return nil, err
	}
	return call[response.TransactionVerify](ctx, c, OpVerify, http.MethodPut, c.endpoint("/transaction/verify", ""), body)
}

// PaymentMethods lists the methods available for lang, e.g. "pl" or "en".
// When the gateway answers with several documents the first one is returned.
func (c *Client) PaymentMethods(ctx context.Context, lang string, q PaymentMethodsQuery) (*response.PaymentMethods, error) {
	if lang == "" {
		return nil, &domain.ValidationError{Field: "lang"}
	}
	return call[response.PaymentMethods](ctx, c, OpPaymentMethods, http.MethodGet, c.methodsURI(lang, q), nil)
}

// PaymentMethodsAll is PaymentMethods returning every document of the
// response in gateway order. An empty list is not an error.
func (c *Client) PaymentMethodsAll(ctx context.Context, lang string, q PaymentMethodsQuery) ([]response.PaymentMethods, error) {
	if lang == "" {
		return nil, &domain.ValidationError{Field: "lang"}
	}
	return callAll[response.PaymentMethods](ctx, c, OpPaymentMethods, http.MethodGet, c.methodsURI(lang, q), nil)
}

func (c *Client) methodsURI(lang string, q PaymentMethodsQuery) string {
	return c.endpoint("/payment/methods/"+url.PathEscape(lang), q.encode())
}

// TestAccess checks the credentials against the gateway.
func (c *Client) TestAccess(ctx context.Context) (*response.TestAccess, error) {
	return call[response.TestAccess](ctx, c, OpTestAccess, http.MethodGet, c.endpoint("/testAccess", ""), nil)
}

// VerifyNotification decodes an inbound notification body and checks its
// signature with the client's crc. A decode failure is returned as an error;
// a signature mismatch is not.
func (c *Client) VerifyNotification(body []byte) (TransactionNotification, bool, error) {
	n, err := DecodeNotification(body)
	if err != nil {
		return TransactionNotification{}, false, err
	}
	return n, n.Verify(c.crc), nil
}

// RedirectURL is where the buyer is sent to pay a registered transaction.
func (c *Client) RedirectURL(token string) string {
	return RedirectURL(c.baseURL, token)
}

// RedirectURL derives the payment page URL for token from an API base URL.
func RedirectURL(baseURL, token string) string {
	host := strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api/v1")
	return host + "/trnRequest/" + token
}

func (c *Client) endpoint(path, query string) string {
	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	return u
}

// call runs one exchange and returns the first decoded document. A body
// holding no document at all is a DecodeError.
func call[T any, PT interface {
	*T
	json.Unmarshaler
}](ctx context.Context, c *Client, op, method, uri string, body []byte) (out *T, err error) {
	defer c.observe(op, time.Now(), &err)

	docs, err := exchange[T, PT](ctx, c, op, method, uri, body)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &domain.DecodeError{Err: fmt.Errorf("empty %s response", op)}
	}
	return &docs[0], nil
}

// callAll runs one exchange and returns every decoded document in order.
func callAll[T any, PT interface {
	*T
	json.Unmarshaler
}](ctx context.Context, c *Client, op, method, uri string, body []byte) (out []T, err error) {
	defer c.observe(op, time.Now(), &err)
	return exchange[T, PT](ctx, c, op, method, uri, body)
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.observer != nil {
		c.observer.ObserveCall(op, time.Since(start), *err)
	}
}

func exchange[T any, PT interface {
	*T
	json.Unmarshaler
}](ctx context.Context, c *Client, op, method, uri string, body []byte) ([]T, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := Request{
		Method:   method,
		URL:      uri,
		Body:     body,
		User:     c.user,
		Password: c.secretID,
		Header:   http.Header{},
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.debug {
		c.log.Debug().Str("operation", op).Str("method", method).Str("uri", uri).RawJSON("body", orNull(body)).Msg("p24 request")
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("p24 %s: %w", op, err)
	}
	if c.debug {
		c.log.Debug().Str("operation", op).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Bytes("body", resp.Body).Msg("p24 response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.GatewayError{StatusCode: resp.StatusCode, Body: string(resp.Body), URI: uri}
	}
	return response.Decode[T, PT](resp.Body)
}

func orNull(b []byte) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}

// IsGatewayStatus reports whether err is a GatewayError with the given status.
func IsGatewayStatus(err error, status int) bool {
	var ge *domain.GatewayError
	return errors.As(err, &ge) && ge.StatusCode == status
}
