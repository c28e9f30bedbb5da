package checkout

import (
	"net/mail"
	"strings"
	"unicode"

	"github.com/plywoodshop/storefront/pkg/enums"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
)

// FieldViolation names an invalid customer field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

const minPhoneDigits = 10

// normalize trims every field and lowercases the email.
func (c CustomerInput) normalize() CustomerInput {
	return CustomerInput{
		Name:           strings.TrimSpace(c.Name),
		Phone:          strings.TrimSpace(c.Phone),
		Email:          strings.ToLower(strings.TrimSpace(c.Email)),
		City:           strings.TrimSpace(c.City),
		Address:        strings.TrimSpace(c.Address),
		DeliveryMethod: enums.DeliveryMethod(strings.TrimSpace(string(c.DeliveryMethod))),
		Comment:        strings.TrimSpace(c.Comment),
	}
}

// ValidateCustomer collects every violation so the form can highlight all
// fields at once.
func ValidateCustomer(c CustomerInput) error {
	var violations []FieldViolation
	if c.Name == "" {
		violations = append(violations, FieldViolation{Field: "name", Reason: "required"})
	}
	if countDigits(c.Phone) < minPhoneDigits {
		violations = append(violations, FieldViolation{Field: "phone", Reason: "must contain at least 10 digits"})
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			violations = append(violations, FieldViolation{Field: "email", Reason: "invalid"})
		}
	}
	if !c.DeliveryMethod.IsValid() {
		violations = append(violations, FieldViolation{Field: "delivery_method", Reason: "must be pickup or delivery"})
	}
	if c.DeliveryMethod == enums.DeliveryMethodDelivery {
		if c.City == "" {
			violations = append(violations, FieldViolation{Field: "city", Reason: "required for delivery"})
		}
		if c.Address == "" {
			violations = append(violations, FieldViolation{Field: "address", Reason: "required for delivery"})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid customer details").WithDetails(violations)
}

func countDigits(value string) int {
	n := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
