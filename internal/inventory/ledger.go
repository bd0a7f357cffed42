package inventory

import (
	"errors"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var digitsPattern = regexp.MustCompile(`^\d+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// ValidateFields checks product fields and reports every failing field as a
// *ValidationError joined into one error.
func ValidateFields(fields ProductFields) error {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)})
	}
	return errors.Join(errs...)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "digits":
		return "must contain digits only"
	case "gte":
		return "must not be negative"
	default:
		return "is invalid"
	}
}

// CreateProduct builds a new product from validated fields. The ID is left
// empty for the store to assign.
func CreateProduct(fields ProductFields, clock Clock) (Product, error) {
	if err := ValidateFields(fields); err != nil {
		return Product{}, err
	}
	now := nowFrom(clock)
	p := Product{
		Code:             fields.Code,
		Name:             fields.Name,
		Description:      fields.Description,
		ImageURL:         fields.ImageURL,
		Quantity:         *fields.Quantity,
		SalesPrice:       *fields.SalesPrice,
		StockInValue:     decimal.Zero,
		StockOutValue:    decimal.Zero,
		LastMovementKind: MovementNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.TotalValue = valueOf(p.SalesPrice, p.Quantity)
	return p, nil
}

// EditProduct overwrites the mutable fields of p. Cumulative movement counters
// and the last movement tag are kept as they are.
func EditProduct(p Product, fields ProductFields, clock Clock) (Product, error) {
	if err := ValidateFields(fields); err != nil {
		return Product{}, err
	}
	next := p
	next.Code = fields.Code
	next.Name = fields.Name
	next.Description = fields.Description
	next.ImageURL = fields.ImageURL
	next.Quantity = *fields.Quantity
	next.SalesPrice = *fields.SalesPrice
	next.TotalValue = valueOf(next.SalesPrice, next.Quantity)
	if next.LastMovementKind == "" {
		next.LastMovementKind = MovementNone
	}
	next.UpdatedAt = stamp(p, clock)
	return next, nil
}

// ApplyMovement returns the state of p after moving delta units in or out.
// It never mutates p and never persists; on error the returned product is zero.
func ApplyMovement(p Product, kind MovementKind, delta int64, clock Clock) (Product, error) {
	if !kind.Valid() {
		return Product{}, &ValidationError{Field: "kind", Reason: "must be stock_in or stock_out"}
	}
	if delta <= 0 {
		return Product{}, &ValidationError{Field: "delta", Reason: "must be positive"}
	}
	next := p
	switch kind {
	case MovementStockIn:
		if delta > math.MaxInt64-p.Quantity || delta > math.MaxInt64-p.StockInUnits {
			return Product{}, &ValidationError{Field: "delta", Reason: "exceeds storable quantity"}
		}
		next.Quantity += delta
		next.StockInUnits += delta
		next.StockInValue = valueOf(next.SalesPrice, next.StockInUnits)
	case MovementStockOut:
		if delta > p.Quantity {
			return Product{}, &InsufficientStockError{Requested: delta, Available: p.Quantity}
		}
		if delta > math.MaxInt64-p.StockOutUnits {
			return Product{}, &ValidationError{Field: "delta", Reason: "exceeds storable quantity"}
		}
		next.Quantity -= delta
		next.StockOutUnits += delta
		next.StockOutValue = valueOf(next.SalesPrice, next.StockOutUnits)
	}
	next.TotalValue = valueOf(next.SalesPrice, next.Quantity)
	next.LastMovementKind = kind
	next.LastMovementAmount = delta
	next.UpdatedAt = stamp(p, clock)
	return next, nil
}

func valueOf(price decimal.Decimal, units int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(units))
}

// stamp never moves UpdatedAt backwards even when the clock lags the stored value.
func stamp(p Product, clock Clock) time.Time {
	now := nowFrom(clock)
	if now.Before(p.UpdatedAt) {
		return p.UpdatedAt
	}
	return now
}

func nowFrom(clock Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now()
}
