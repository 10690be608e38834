package response

// AvailabilityHours lists the hour ranges a payment method accepts payments in,
// e.g. "00-24". An absent object decodes to all-nil fields.
type AvailabilityHours struct {
	MondayToFriday *string `json:"mondayToFriday"`
	Saturday       *string `json:"saturday"`
	Sunday         *string `json:"sunday"`
}

func (h *AvailabilityHours) UnmarshalJSON(b []byte) error {
	o, err := decodeObject(b)
	if err != nil {
		return err
	}
	var v AvailabilityHours
	for _, f := range []stringField{
		{"mondayToFriday", &v.MondayToFriday},
		{"saturday", &v.Saturday},
		{"sunday", &v.Sunday},
	} {
		if err := o.field(f.key, f.dst, false); err != nil {
			return err
		}
	}
	*h = v
	return nil
}
