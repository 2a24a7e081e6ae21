package gst

import "fmt"

// FieldError describes a single invalid field on a line.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every problem with the line. The calculators themselves
// never consult this: they stay total over their numeric domain, and callers
// decide whether to validate before computing. A nil result means the line is
// well formed.
func Validate(l Line) []FieldError {
	var errs []FieldError
	if l.UnitPrice.IsNegative() {
		errs = append(errs, FieldError{Field: "unitPrice", Message: "must not be negative"})
	}
	if l.Quantity < 0 {
		errs = append(errs, FieldError{Field: "quantity", Message: "must not be negative"})
	}
	if l.TaxRate.IsNegative() {
		errs = append(errs, FieldError{Field: "taxRate", Message: "must not be negative"})
	}
	if l.UseCompoundUnit {
		if l.SecondaryUnit == "" || l.SecondaryUnit == NoSecondaryUnit {
			errs = append(errs, FieldError{Field: "secondaryUnit", Message: "required when compound unit is enabled"})
		} else if !l.ConversionRatio.IsPositive() {
			errs = append(errs, FieldError{Field: "conversionRatio", Message: "must be greater than zero"})
		}
		switch l.PriceUnit {
		case PricePerPrimary, PricePerSecondary:
		default:
			errs = append(errs, FieldError{Field: "priceUnit", Message: "must be primary or secondary"})
		}
	}
	switch l.CessKind {
	case CessValue:
		if !l.CessRate.IsPositive() {
			errs = append(errs, FieldError{Field: "cessRate", Message: "required for value-based cess"})
		}
	case CessQuantity:
		if !l.CessPerUnit.IsPositive() {
			errs = append(errs, FieldError{Field: "cessAmount", Message: "required for quantity-based cess"})
		}
	case CessValueAndQuantity:
		if !l.CessRate.IsPositive() {
			errs = append(errs, FieldError{Field: "cessRate", Message: "required for value-based cess"})
		}
		if !l.CessPerUnit.IsPositive() {
			errs = append(errs, FieldError{Field: "cessAmount", Message: "required for quantity-based cess"})
		}
	}
	switch l.DiscountKind {
	case DiscountPercent:
		if l.DiscountValue.IsNegative() || l.DiscountValue.GreaterThan(hundred) {
			errs = append(errs, FieldError{Field: "discountValue", Message: "percentage must be between 0 and 100"})
		}
	case DiscountAmount:
		if l.DiscountValue.IsNegative() {
			errs = append(errs, FieldError{Field: "discountValue", Message: "must not be negative"})
		}
	}
	return errs
}
