package response

// TokenData carries the token used to build the buyer redirect URL.
type TokenData struct {
	Token *string `json:"token"`
}

func (d *TokenData) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var token *string
	if err := o.field("token", &token, false); err != nil {
		return err
	}
	*d = TokenData{Token: token}
	return nil
}

// TransactionRegister is the reply to POST /transaction/register.
type TransactionRegister struct {
	Data         TokenData `json:"data"`
	ResponseCode *int64    `json:"responseCode"`
}

func (r *TransactionRegister) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v TransactionRegister
	if err := o.field("data", &v.Data, true); err != nil {
		return err
	}
	if err := o.field("responseCode", &v.ResponseCode, false); err != nil {
		return err
	}
	*r = v
	return nil
}

// Token returns the registration token, or "" when the gateway sent none.
func (r TransactionRegister) Token() string {
	if r.Data.Token == nil {
		return ""
	}
	return *r.Data.Token
}
