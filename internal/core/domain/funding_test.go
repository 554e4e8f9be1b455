package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup(totalGoal Money, slots int) Group {
	alloc, _ := Allocate(totalGoal, slots)
	return Group{
		ID:          "g1",
		CreatorID:   "creator",
		Name:        "Cow Split",
		TotalGoal:   totalGoal,
		CostPerSlot: alloc.CostPerSlot,
		TotalSlots:  slots,
		Status:      GroupActive,
	}
}

func TestApplyJoin(t *testing.T) {
	now := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)

	t.Run("increments slots and raised amount", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.FilledSlots = 1
		g.TotalRaised = 1000

		got, m, err := ApplyJoin(g, GroupMember{UserID: "u2", SlotsCount: 1}, now)
		require.NoError(t, err)
		assert.Equal(t, 2, got.FilledSlots)
		assert.Equal(t, Money(2000), got.TotalRaised)
		assert.Equal(t, GroupActive, got.Status)
		assert.Equal(t, Money(1000), m.TotalContribution)
		assert.Equal(t, "g1", m.GroupID)
	})

	t.Run("creator first slot absorbs the remainder", func(t *testing.T) {
		g := testGroup(1_000_000, 3) // per slot 333_333, remainder 1

		got, m, err := ApplyJoin(g, GroupMember{UserID: "creator", SlotsCount: 1}, now)
		require.NoError(t, err)
		assert.Equal(t, Money(333_334), m.TotalContribution)
		assert.Equal(t, Money(333_334), got.TotalRaised)
	})

	t.Run("non-creator first join does not get the remainder", func(t *testing.T) {
		g := testGroup(1_000_000, 3)

		_, m, err := ApplyJoin(g, GroupMember{UserID: "u2", SlotsCount: 1}, now)
		require.NoError(t, err)
		assert.Equal(t, Money(333_333), m.TotalContribution)
	})

	t.Run("last slot completes the group", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.FilledSlots = 4
		g.TotalRaised = 4000

		got, _, err := ApplyJoin(g, GroupMember{UserID: "u5", SlotsCount: 1}, now)
		require.NoError(t, err)
		assert.Equal(t, 5, got.FilledSlots)
		assert.Equal(t, GroupCompleted, got.Status)
		assert.Equal(t, Money(5000), got.TotalRaised)
	})

	t.Run("overfilling join is rejected without mutation", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.FilledSlots = 4
		g.TotalRaised = 4000

		got, _, err := ApplyJoin(g, GroupMember{UserID: "u5", SlotsCount: 2}, now)
		assert.ErrorIs(t, err, ErrSlotsExhausted)
		assert.Equal(t, g, got, "rejected join leaves the group unchanged")
	})

	t.Run("completed group has no slots left", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.FilledSlots = 5
		g.TotalRaised = 5000
		g.Status = GroupCompleted

		_, _, err := ApplyJoin(g, GroupMember{UserID: "u6", SlotsCount: 1}, now)
		assert.ErrorIs(t, err, ErrSlotsExhausted)
	})

	t.Run("closed group rejects joins", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.Status = GroupClosed

		_, _, err := ApplyJoin(g, GroupMember{UserID: "u2", SlotsCount: 1}, now)
		assert.ErrorIs(t, err, ErrGroupClosed)
	})

	t.Run("zero slot claim is a validation error", func(t *testing.T) {
		g := testGroup(5000, 5)

		_, _, err := ApplyJoin(g, GroupMember{UserID: "u2", SlotsCount: 0}, now)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "slots_count", vErr.Field)
	})
}

// A full join sequence must reconstruct the goal exactly: no rounding money
// lost or gained across the whole group.
func TestApplyJoinSequenceReconcilesGoal(t *testing.T) {
	now := time.Now()
	totals := []Money{1_000_000, 999_999, 5000, 12_345_679}
	slotCounts := []int{3, 7, 5, 11}

	for i, total := range totals {
		slots := slotCounts[i]
		g := testGroup(total, slots)

		// Creator takes the first slot, then one member per remaining slot.
		var err error
		g, _, err = ApplyJoin(g, GroupMember{UserID: "creator", SlotsCount: 1}, now)
		require.NoError(t, err)
		for s := 1; s < slots; s++ {
			g, _, err = ApplyJoin(g, GroupMember{UserID: "member", SlotsCount: 1}, now)
			require.NoError(t, err)
		}

		assert.Equal(t, slots, g.FilledSlots)
		assert.Equal(t, total, g.TotalRaised, "goal=%d slots=%d", total, slots)
		assert.Equal(t, GroupCompleted, g.Status)
	}
}

func TestApplyJoinMultiSlotClaims(t *testing.T) {
	now := time.Now()
	g := testGroup(1_000_000, 4) // per slot 250_000

	g, creator, err := ApplyJoin(g, GroupMember{UserID: "creator", SlotsCount: 1}, now)
	require.NoError(t, err)
	assert.Equal(t, Money(250_000), creator.TotalContribution)

	g, bulk, err := ApplyJoin(g, GroupMember{UserID: "u2", SlotsCount: 3}, now)
	require.NoError(t, err)
	assert.Equal(t, Money(750_000), bulk.TotalContribution)
	assert.Equal(t, GroupCompleted, g.Status)
	assert.Equal(t, Money(1_000_000), g.TotalRaised)
}

func TestApplyDeadlineTick(t *testing.T) {
	deadline := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	before := deadline.AddDate(0, 0, -1)
	after := deadline.AddDate(0, 0, 1)

	t.Run("closes active group past deadline", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.Deadline = &deadline

		got := ApplyDeadlineTick(g, after)
		assert.Equal(t, GroupClosed, got.Status)
	})

	t.Run("no-op before the deadline", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.Deadline = &deadline

		got := ApplyDeadlineTick(g, before)
		assert.Equal(t, GroupActive, got.Status)
	})

	t.Run("flexible groups never close", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.IsFlexible = true
		g.Deadline = &deadline

		got := ApplyDeadlineTick(g, after)
		assert.Equal(t, GroupActive, got.Status)
	})

	t.Run("completed groups stay completed", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.Status = GroupCompleted
		g.Deadline = &deadline

		got := ApplyDeadlineTick(g, after)
		assert.Equal(t, GroupCompleted, got.Status)
	})

	t.Run("idempotent", func(t *testing.T) {
		g := testGroup(5000, 5)
		g.Deadline = &deadline

		once := ApplyDeadlineTick(g, after)
		twice := ApplyDeadlineTick(once, after)
		assert.Equal(t, once, twice)
	})
}
