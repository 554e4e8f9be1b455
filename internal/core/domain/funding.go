package domain

import "time"

// ApplyJoin applies a member's slot claim to a group snapshot and returns the
// updated group and member. Both inputs are taken by value: on failure the
// caller's group is untouched (all-or-nothing).
//
// The contribution is slotsCount * costPerSlot. The rounding remainder of the
// original allocation is added exactly once, when the creator pays for the
// group's first slot, so a fully-slotted group raises exactly its total goal.
//
// Persistence is the caller's concern: each ApplyJoin result must be committed
// as an atomic read-modify-write so concurrent joins cannot both pass the
// slot check against a stale snapshot.
func ApplyJoin(g Group, m GroupMember, now time.Time) (Group, GroupMember, error) {
	if m.SlotsCount < 1 {
		return g, m, NewValidationError("slots_count", "must claim at least one slot")
	}
	if g.Status == GroupClosed {
		return g, m, ErrGroupClosed
	}
	if g.FilledSlots+m.SlotsCount > g.TotalSlots {
		return g, m, ErrSlotsExhausted
	}

	contribution := g.CostPerSlot * Money(m.SlotsCount)
	if m.UserID == g.CreatorID && g.FilledSlots == 0 {
		contribution += g.Remainder()
	}

	m.GroupID = g.ID
	m.TotalContribution = contribution
	if m.Status == "" {
		m.Status = MemberPaid
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}

	g.FilledSlots += m.SlotsCount
	g.TotalRaised += contribution
	if g.FilledSlots == g.TotalSlots {
		g.Status = GroupCompleted
	}
	g.UpdatedAt = now

	return g, m, nil
}

// ApplyDeadlineTick closes a non-flexible active group whose deadline has
// passed. Idempotent: closed and completed groups pass through unchanged.
func ApplyDeadlineTick(g Group, now time.Time) Group {
	if g.IsFlexible || g.Status != GroupActive || g.Deadline == nil {
		return g
	}
	if now.After(*g.Deadline) {
		g.Status = GroupClosed
		g.UpdatedAt = now
	}
	return g
}
