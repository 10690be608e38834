package response

// PaymentMethodData describes one payment method offered to the merchant.
type PaymentMethodData struct {
	Name              *string           `json:"name"`
	ID                *int64            `json:"id"`
	Group             *string           `json:"group"`
	Subgroup          *string           `json:"subgroup"`
	Status            *string           `json:"status"`
	ImgURL            *string           `json:"imgUrl"`
	MobileImgURL      *string           `json:"mobileImgUrl"`
	Mobile            *bool             `json:"mobile"`
	AvailabilityHours AvailabilityHours `json:"availabilityHours"`
}

func (d *PaymentMethodData) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v PaymentMethodData
	for _, f := range []stringField{
		{"name", &v.Name},
		{"group", &v.Group},
		{"subgroup", &v.Subgroup},
		{"imgUrl", &v.ImgURL},
		{"mobileImgUrl", &v.MobileImgURL},
	} {
		if err := o.field(f.key, f.dst, false); err != nil {
			return err
		}
	}
	if err := o.field("id", &v.ID, false); err != nil {
		return err
	}
	// Older gateway versions report status as a boolean.
	var status *stringOrBool
	if err := o.field("status", &status, false); err != nil {
		return err
	}
	if status != nil {
		s := string(*status)
		v.Status = &s
	}
	if err := o.field("mobile", &v.Mobile, false); err != nil {
		return err
	}
	if err := o.field("availabilityHours", &v.AvailabilityHours, false); err != nil {
		return err
	}
	*d = v
	return nil
}
