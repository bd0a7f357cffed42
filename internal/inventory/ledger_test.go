package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newStepClock() *stepClock {
	return &stepClock{t: baseTime, step: time.Second}
}

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func int64Ptr(v int64) *int64 { return &v }

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func validFields() ProductFields {
	return ProductFields{
		Code:       "123",
		Name:       "Jasmine Rice 5kg",
		Quantity:   int64Ptr(10),
		SalesPrice: decPtr("20"),
	}
}

func productWith(qty int64, price string) Product {
	p := Product{
		ID:               "p-1",
		Code:             "1",
		Name:             "Widget",
		Quantity:         qty,
		SalesPrice:       decimal.RequireFromString(price),
		LastMovementKind: MovementNone,
		CreatedAt:        baseTime,
		UpdatedAt:        baseTime,
	}
	p.TotalValue = valueOf(p.SalesPrice, p.Quantity)
	return p
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestStockOutScenario(t *testing.T) {
	p := productWith(10, "20")

	next, err := ApplyMovement(p, MovementStockOut, 3, newStepClock())
	require.NoError(t, err)
	require.EqualValues(t, 7, next.Quantity)
	require.EqualValues(t, 3, next.StockOutUnits)
	requireDecimal(t, "60", next.StockOutValue)
	requireDecimal(t, "140", next.TotalValue)
	require.Equal(t, MovementStockOut, next.LastMovementKind)
	require.EqualValues(t, 3, next.LastMovementAmount)
	require.EqualValues(t, -3, next.SignedAmount())
}

func TestStockInScenario(t *testing.T) {
	p := productWith(0, "5")

	next, err := ApplyMovement(p, MovementStockIn, 5, newStepClock())
	require.NoError(t, err)
	require.EqualValues(t, 5, next.Quantity)
	require.EqualValues(t, 5, next.StockInUnits)
	requireDecimal(t, "25", next.StockInValue)
	requireDecimal(t, "25", next.TotalValue)
	require.Equal(t, MovementStockIn, next.LastMovementKind)
	require.EqualValues(t, 5, next.SignedAmount())
}

func TestApplyMovementProperties(t *testing.T) {
	prices := []string{"0", "1", "19.99", "250.5"}
	for _, price := range prices {
		for qty := int64(0); qty <= 12; qty++ {
			p := productWith(qty, price)
			p.StockInUnits = 4
			p.StockOutUnits = 2
			for d := int64(1); d <= 15; d++ {
				in, err := ApplyMovement(p, MovementStockIn, d, newStepClock())
				require.NoError(t, err)
				require.Equal(t, qty+d, in.Quantity)
				require.Equal(t, p.StockInUnits+d, in.StockInUnits)
				requireDecimal(t, in.SalesPrice.Mul(decimal.NewFromInt(in.Quantity)).String(), in.TotalValue)
				requireDecimal(t, in.SalesPrice.Mul(decimal.NewFromInt(in.StockInUnits)).String(), in.StockInValue)

				out, err := ApplyMovement(p, MovementStockOut, d, newStepClock())
				if d > qty {
					var stockErr *InsufficientStockError
					require.ErrorAs(t, err, &stockErr)
					require.ErrorIs(t, err, ErrInsufficientStock)
					require.Equal(t, d, stockErr.Requested)
					require.Equal(t, qty, stockErr.Available)
					require.Equal(t, productWith(qty, price).Quantity, p.Quantity)
					continue
				}
				require.NoError(t, err)
				require.Equal(t, qty-d, out.Quantity)
				require.GreaterOrEqual(t, out.Quantity, int64(0))
				require.Equal(t, p.StockOutUnits+d, out.StockOutUnits)
				requireDecimal(t, out.SalesPrice.Mul(decimal.NewFromInt(out.StockOutUnits)).String(), out.StockOutValue)
			}
		}
	}
}

func TestApplyMovementRejectsWithoutMutation(t *testing.T) {
	p := productWith(2, "10")
	snapshot := p

	_, err := ApplyMovement(p, MovementStockOut, 3, newStepClock())
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, snapshot, p)

	_, err = ApplyMovement(p, MovementStockIn, 0, newStepClock())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "delta", ve.Field)

	_, err = ApplyMovement(p, MovementStockOut, -1, newStepClock())
	require.ErrorIs(t, err, ErrValidation)

	_, err = ApplyMovement(p, MovementNone, 1, newStepClock())
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "kind", ve.Field)
}

func TestApplyMovementUsesCurrentPriceForCumulativeValue(t *testing.T) {
	p := productWith(0, "10")
	p, err := ApplyMovement(p, MovementStockIn, 4, newStepClock())
	require.NoError(t, err)
	requireDecimal(t, "40", p.StockInValue)

	p.SalesPrice = decimal.RequireFromString("12")
	p, err = ApplyMovement(p, MovementStockIn, 1, newStepClock())
	require.NoError(t, err)
	requireDecimal(t, "60", p.StockInValue)
	requireDecimal(t, "60", p.TotalValue)
}

func TestApplyMovementNeverMovesUpdatedAtBackwards(t *testing.T) {
	p := productWith(5, "1")
	p.UpdatedAt = baseTime.Add(time.Hour)

	next, err := ApplyMovement(p, MovementStockIn, 1, fixedClock(baseTime))
	require.NoError(t, err)
	require.Equal(t, p.UpdatedAt, next.UpdatedAt)

	later := baseTime.Add(2 * time.Hour)
	next, err = ApplyMovement(next, MovementStockOut, 1, fixedClock(later))
	require.NoError(t, err)
	require.Equal(t, later, next.UpdatedAt)
}

func TestCreateProduct(t *testing.T) {
	clock := fixedClock(baseTime)

	p, err := CreateProduct(validFields(), clock)
	require.NoError(t, err)
	require.Equal(t, "123", p.Code)
	require.EqualValues(t, 10, p.Quantity)
	requireDecimal(t, "200", p.TotalValue)
	require.Equal(t, MovementNone, p.LastMovementKind)
	require.Zero(t, p.StockInUnits)
	require.Zero(t, p.StockOutUnits)
	require.True(t, p.StockInValue.IsZero())
	require.Equal(t, baseTime, p.CreatedAt)
	require.Equal(t, baseTime, p.UpdatedAt)
	require.False(t, p.HasImage())
}

func TestCreateProductAllowsZeroQuantityAndPrice(t *testing.T) {
	fields := validFields()
	fields.Quantity = int64Ptr(0)
	fields.SalesPrice = decPtr("0")

	p, err := CreateProduct(fields, fixedClock(baseTime))
	require.NoError(t, err)
	require.True(t, p.OutOfStock())
	require.True(t, p.TotalValue.IsZero())
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductFields)
		fields []string
	}{
		{name: "non numeric code", mutate: func(f *ProductFields) { f.Code = "abc" }, fields: []string{"code"}},
		{name: "mixed code", mutate: func(f *ProductFields) { f.Code = "12a" }, fields: []string{"code"}},
		{name: "missing code", mutate: func(f *ProductFields) { f.Code = "" }, fields: []string{"code"}},
		{name: "blank name", mutate: func(f *ProductFields) { f.Name = "   " }, fields: []string{"name"}},
		{name: "missing quantity", mutate: func(f *ProductFields) { f.Quantity = nil }, fields: []string{"quantity"}},
		{name: "negative quantity", mutate: func(f *ProductFields) { f.Quantity = int64Ptr(-1) }, fields: []string{"quantity"}},
		{name: "missing price", mutate: func(f *ProductFields) { f.SalesPrice = nil }, fields: []string{"sales_price"}},
		{name: "negative price", mutate: func(f *ProductFields) { f.SalesPrice = decPtr("-0.5") }, fields: []string{"sales_price"}},
		{
			name: "several fields",
			mutate: func(f *ProductFields) {
				f.Code = "x1"
				f.Name = ""
				f.SalesPrice = nil
			},
			fields: []string{"code", "name", "sales_price"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := validFields()
			tc.mutate(&fields)

			_, err := CreateProduct(fields, fixedClock(baseTime))
			require.ErrorIs(t, err, ErrValidation)

			var got []string
			for _, ve := range ValidationErrors(err) {
				got = append(got, ve.Field)
			}
			require.Equal(t, tc.fields, got)
		})
	}
}

func TestEditProductKeepsCounters(t *testing.T) {
	p := productWith(10, "20")
	p, err := ApplyMovement(p, MovementStockOut, 3, fixedClock(baseTime.Add(time.Minute)))
	require.NoError(t, err)

	fields := ProductFields{
		Code:        "456",
		Name:        "Renamed",
		Description: "new description",
		ImageURL:    "https://cdn.example.com/p.png",
		Quantity:    int64Ptr(4),
		SalesPrice:  decPtr("25"),
	}
	edited, err := EditProduct(p, fields, fixedClock(baseTime.Add(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, "456", edited.Code)
	require.Equal(t, "Renamed", edited.Name)
	require.True(t, edited.HasImage())
	require.EqualValues(t, 4, edited.Quantity)
	requireDecimal(t, "100", edited.TotalValue)
	require.Equal(t, p.StockOutUnits, edited.StockOutUnits)
	requireDecimal(t, "60", edited.StockOutValue)
	require.Equal(t, MovementStockOut, edited.LastMovementKind)
	require.Equal(t, p.CreatedAt, edited.CreatedAt)
	require.Equal(t, baseTime.Add(time.Hour), edited.UpdatedAt)
}

func TestEditProductValidation(t *testing.T) {
	p := productWith(1, "1")
	fields := validFields()
	fields.Code = "abc"

	_, err := EditProduct(p, fields, fixedClock(baseTime))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "code", ve.Field)
}

func TestSystemClockIsStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 123456789, time.UTC)
	clock := &SystemClock{now: func() time.Time { return frozen }}

	first := clock.Now()
	second := clock.Now()
	require.Equal(t, frozen.Truncate(time.Microsecond), first)
	require.True(t, second.After(first))
	require.Equal(t, time.Microsecond, second.Sub(first))
}
