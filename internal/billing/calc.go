package billing

import (
	"time"

	"github.com/govalues/money"
	"github.com/shopspring/decimal"

	"github.com/hidrobill/hidrobill/internal/errs"
)

// ComputeMeteredCharge converts a pair of meter readings into a consumption
// and a charge at the given unit price. The charge is rounded half-up to two
// decimal places. Readings must be non-negative and current must not be below
// previous; violations return ErrInvalidReading and a zero charge.
func ComputeMeteredCharge(previous, current int64, unitPrice decimal.Decimal) (int64, decimal.Decimal, error) {
	if previous < 0 || current < 0 || current < previous {
		return 0, decimal.Zero, errs.ErrInvalidReading
	}
	if unitPrice.IsNegative() {
		return 0, decimal.Zero, errs.ErrInvalidAmount
	}
	consumption := current - previous
	// shopspring Round is half away from zero, which is half-up for the
	// non-negative charges produced here.
	charge := unitPrice.Mul(decimal.NewFromInt(consumption)).Round(2)
	return consumption, charge, nil
}

// ComputeFlatCharge returns the charge for periods cycles at the monthly rate.
func ComputeFlatCharge(monthlyRate decimal.Decimal, periods int) (decimal.Decimal, error) {
	if periods < 1 {
		return decimal.Zero, errs.ErrInvalidPeriod
	}
	if monthlyRate.Sign() <= 0 {
		return decimal.Zero, errs.ErrInvalidAmount
	}
	return monthlyRate.Mul(decimal.NewFromInt(int64(periods))).Round(2), nil
}

// NextDueDate advances a due date by the given number of months, clamping to
// the last valid day of the target month (Jan 31 + 1 month = Feb 28/29).
func NextDueDate(from time.Time, months int) time.Time {
	y, m, d := from.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, from.Location()).AddDate(0, months, 0)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	h, min, sec := from.Clock()
	return time.Date(first.Year(), first.Month(), d, h, min, sec, from.Nanosecond(), from.Location())
}

// ResolveStatus maps a client's service state and ledger balance to a display
// status. Suspension dominates; otherwise a positive (owed) balance is
// overdue, zero is current and negative is credit. The resolver is the only
// place the balance sign convention is interpreted.
func ResolveStatus(state ServiceState, balance money.Amount) AccountStatus {
	if state == ServiceStateSuspended {
		return StatusSuspended
	}
	minor, _ := balance.MinorUnits()
	switch {
	case minor > 0:
		return StatusOverdue
	case minor < 0:
		return StatusCredit
	default:
		return StatusCurrent
	}
}

// AmountFromDecimal converts a decimal charge (already at two decimal places)
// into a minor-unit amount in the given currency.
func AmountFromDecimal(currency string, d decimal.Decimal) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(currency, d.Round(2).Shift(2).IntPart())
}

// ZeroAmount returns the zero amount for a currency.
func ZeroAmount(currency string) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(currency, 0)
}

// CycleKey identifies the calendar billing cycle a timestamp falls into.
// One flat charge is generated per client per key.
func CycleKey(t time.Time) string {
	return "cycle:" + t.UTC().Format("2006-01")
}
