package response

import (
	"bytes"
	"encoding/json"
)

// TestAccess is the reply to GET /testAccess. Data is passed through as sent.
type TestAccess struct {
	Data  json.RawMessage `json:"data"`
	Error *string         `json:"error"`
}

func (a *TestAccess) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v TestAccess
	if raw, ok := o["data"]; ok && !isNull(raw) {
		v.Data = append(json.RawMessage(nil), raw...)
	}
	if err := o.field("error", &v.Error, false); err != nil {
		return err
	}
	*a = v
	return nil
}

// Granted reports whether the gateway answered data: true.
func (a TestAccess) Granted() bool {
	return bytes.Equal(bytes.TrimSpace(a.Data), []byte("true"))
}
