package domain

// Money is an amount in kobo. All currency arithmetic is integer-based so
// splitting a total across slots never drifts the way floats do.
type Money int64

// Allocation is the result of dividing a total cost across a slot count.
// The remainder is tracked separately so the sum of all slot charges plus
// the remainder always reconstructs the total exactly.
type Allocation struct {
	CostPerSlot Money
	Remainder   Money
}

// Allocate divides totalCost across slotCount slots.
// Invariants: CostPerSlot*slotCount + Remainder == totalCost and
// 0 <= Remainder < slotCount.
func Allocate(totalCost Money, slotCount int) (Allocation, error) {
	if slotCount <= 0 || totalCost < 0 {
		return Allocation{}, ErrInvalidAllocation
	}

	perSlot := totalCost / Money(slotCount)
	return Allocation{
		CostPerSlot: perSlot,
		Remainder:   totalCost - perSlot*Money(slotCount),
	}, nil
}
