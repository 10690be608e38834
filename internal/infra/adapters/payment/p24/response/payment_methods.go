package response

import "encoding/json"

// PaymentMethods is the reply to GET /payment/methods/{lang}.
type PaymentMethods struct {
	Data         []PaymentMethodData `json:"data"`
	Agreements   []string            `json:"agreements"`
	ResponseCode *int64              `json:"responseCode"`
}

func (m *PaymentMethods) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v PaymentMethods
	if v.Data, err = list[PaymentMethodData](o, "data"); err != nil {
		return err
	}
	if err := o.field("agreements", &v.Agreements, false); err != nil {
		return err
	}
	if err := o.field("responseCode", &v.ResponseCode, false); err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalJSON renders a nil Data as an empty list; data is required on decode.
func (m PaymentMethods) MarshalJSON() ([]byte, error) {
	type wire PaymentMethods
	w := wire(m)
	if w.Data == nil {
		w.Data = []PaymentMethodData{}
	}
	return json.Marshal(w)
}

// ByID returns the method with the given gateway id.
func (m PaymentMethods) ByID(id int64) (PaymentMethodData, bool) {
	for _, d := range m.Data {
		if d.ID != nil && *d.ID == id {
			return d, true
		}
	}
	return PaymentMethodData{}, false
}
