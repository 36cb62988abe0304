package checkout

import (
	"strings"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
)

// Form is the checkout screen input.
type Form struct {
	Address       domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod domain.PaymentMethod   `json:"paymentMethod"`
}

// Normalized returns the form with surrounding whitespace removed from every field.
func (f Form) Normalized() Form {
	return Form{
		Address: domain.ShippingAddress{
			FullName:   strings.TrimSpace(f.Address.FullName),
			Street:     strings.TrimSpace(f.Address.Street),
			City:       strings.TrimSpace(f.Address.City),
			PostalCode: strings.TrimSpace(f.Address.PostalCode),
			Phone:      strings.TrimSpace(f.Address.Phone),
		},
		PaymentMethod: domain.PaymentMethod(strings.TrimSpace(string(f.PaymentMethod))),
	}
}

// Validate checks the normalized form and returns a *ValidationError
// naming every missing or invalid field.
func (f Form) Validate() error {
	n := f.Normalized()
	fields := make(map[string]string)

	if n.Address.FullName == "" {
		fields["fullName"] = "full name is required"
	}
	if n.Address.Street == "" {
		fields["street"] = "street address is required"
	}
	if n.Address.City == "" {
		fields["city"] = "city is required"
	}
	if n.Address.PostalCode == "" {
		fields["postalCode"] = "postal code is required"
	}
	if n.Address.Phone == "" {
		fields["phone"] = "phone number is required"
	}
	if !n.PaymentMethod.Valid() {
		fields["paymentMethod"] = "payment method must be cash or card"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
