package response

type StatusData struct {
	Status *string `json:"status"`
}

func (d *StatusData) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var status *string
	if err := o.field("status", &status, false); err != nil {
		return err
	}
	*d = StatusData{Status: status}
	return nil
}

// TransactionVerify is the reply to PUT /transaction/verify.
// A successful verification reports status "success".
type TransactionVerify struct {
	Data         StatusData `json:"data"`
	ResponseCode *int64     `json:"responseCode"`
}

func (r *TransactionVerify) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v TransactionVerify
	if err := o.field("data", &v.Data, true); err != nil {
		return err
	}
	if err := o.field("responseCode", &v.ResponseCode, false); err != nil {
		return err
	}
	*r = v
	return nil
}

// Succeeded reports whether the gateway confirmed the transaction.
func (r TransactionVerify) Succeeded() bool {
	return r.Data.Status != nil && *r.Data.Status == "success"
}
