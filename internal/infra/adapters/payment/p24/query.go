package p24

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParam is an optional query value given either as a scalar or a list.
// The zero value is absent.
type QueryParam struct {
	values []string
	list   bool
}

func Scalar(v string) QueryParam { return QueryParam{values: []string{v}} }

func ScalarInt(v int64) QueryParam { return Scalar(strconv.FormatInt(v, 10)) }

// List renders comma-joined. An empty list is absent.
func List(vs ...string) QueryParam { return QueryParam{values: vs, list: true} }

func (p QueryParam) render() (string, bool) {
	if len(p.values) == 0 {
		return "", false
	}
	if !p.list {
		return p.values[0], true
	}
	return strings.Join(p.values, ","), true
}

// PaymentMethodsQuery filters GET /payment/methods/{lang}.
type PaymentMethodsQuery struct {
	Amount   QueryParam
	Currency QueryParam
}

func (q PaymentMethodsQuery) encode() string {
	vals := url.Values{}
	for key, p := range map[string]QueryParam{"amount": q.Amount, "currency": q.Currency} {
		if v, ok := p.render(); ok {
			vals.Set(key, v)
		}
	}
	// The gateway expects literal commas between list items.
	return strings.ReplaceAll(vals.Encode(), "%2C", ",")
}
