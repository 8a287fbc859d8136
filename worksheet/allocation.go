/*
allocation.go - The allocation engine

PURPOSE:
  Computes how an entry's amount is divided among its selected
  participants. Recalculate is pure: it reads an entry and the registry and
  returns an AllocationResult. Writing auto-filled values back onto the
  entry is the coordinator's job (see coordinator.go).

EQUAL MODE:
  share = amount / |selected|, amount left is always zero.

UNEQUAL MODE:
  1. Partition selected into specified (override > 0) and unspecified
  2. amountLeft = amount - sum(specified overrides)
  3. If unspecified is non-empty and amountLeft > 0, amountLeft (rounded to
     cents) is split among the unspecified participants in whole cents:
     each gets floor2(amountLeft / |unspecified|) and the leftover cents go
     one each to the first participants in column order, so the filled
     values always sum to the rounded remainder
  4. average = (specified + auto-filled) / |selected|

  amountLeft is reported before the auto-fill. Once the coordinator writes
  the filled values back, those participants count as specified.

CLAMPING:
  An override edit never pushes the specified total past the amount. The
  edited value is reduced to amount - sum(others), floored at zero.

DIVISION BY ZERO:
  Empty selections and empty partitions produce zero, never an error.
*/
package worksheet

import "github.com/shopspring/decimal"

// Recalculate computes the allocation for e. It does not modify e.
// Selected ids that are not in reg are ignored. The unequal auto-fill hands
// out whole cents rather than rounding each share on its own, so 100 over
// three gives 33.34, 33.33, 33.33 instead of 33.33 three times.
func Recalculate(e *Entry, reg *Registry) AllocationResult {
	res := emptyResult()

	selected := make([]ParticipantID, 0, len(e.Selected))
	for _, id := range reg.IDs() {
		if e.Selected[id] {
			selected = append(selected, id)
		}
	}
	amount := NormalizeAmount(e.Amount)

	if e.Mode != ModeUnequal {
		share := divOrZero(amount, len(selected))
		for _, id := range selected {
			res.Shares[id] = share
		}
		res.PerShareAverage = Round(share)
		return res
	}

	var unspecified []ParticipantID
	specified := decimal.Zero
	for _, id := range selected {
		v := e.Override(id)
		if v.IsPositive() {
			specified = specified.Add(v)
			res.Shares[id] = v
			continue
		}
		unspecified = append(unspecified, id)
		res.Shares[id] = decimal.Zero
	}

	left := amount.Sub(specified)
	res.SpecifiedTotal = specified
	res.AmountLeft = left

	filled := decimal.Zero
	if len(unspecified) > 0 && left.IsPositive() {
		for i, part := range splitCents(left, len(unspecified)) {
			if !part.IsPositive() {
				continue
			}
			id := unspecified[i]
			res.Shares[id] = part
			res.AutoFilled[id] = part
			filled = filled.Add(part)
		}
	}

	res.PerShareAverage = Round(divOrZero(specified.Add(filled), len(selected)))
	return res
}

// splitCents divides total, rounded to cents, into n parts of whole cents
// that sum exactly to the rounded total. Earlier parts absorb the leftover
// cents.
func splitCents(total decimal.Decimal, n int) []decimal.Decimal {
	parts := make([]decimal.Decimal, n)
	if n == 0 {
		return parts
	}
	total = Round(total)
	base := divOrZero(total, n).Truncate(Precision)
	rest := total.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	cent := decimal.New(1, -Precision)
	for i := range parts {
		parts[i] = base
		if rest.IsPositive() {
			parts[i] = parts[i].Add(cent)
			rest = rest.Sub(cent)
		}
	}
	return parts
}

// ClampOverride limits value so that value + others never exceeds amount.
// Negative values become zero. A clamped value is amount - others, floored
// at zero when others already cover the amount.
func ClampOverride(amount, value, others decimal.Decimal) decimal.Decimal {
	value = NormalizeAmount(value)
	if value.Add(others).GreaterThan(amount) {
		return NormalizeAmount(amount.Sub(others))
	}
	return value
}

// othersSpecified sums the overrides > 0 of every selected participant
// except p.
func othersSpecified(e *Entry, p ParticipantID) decimal.Decimal {
	sum := decimal.Zero
	for id, v := range e.Overrides {
		if id == p || !e.Selected[id] || !v.IsPositive() {
			continue
		}
		sum = sum.Add(v)
	}
	return sum
}
