package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *GroupDraft {
	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	d := NewGroupDraft()
	d.GroupName = "Ramadan Cow Split"
	d.ItemType = ItemTypeCow
	d.ItemName = "One full cow from Kara market"
	d.ItemCost = 1_000_000 * 100
	d.SlotCount = 7
	d.Deadline = &deadline
	return d
}

func advanceToSummary(t *testing.T, d *GroupDraft) {
	t.Helper()
	for d.Step() < Step6Summary {
		require.NoError(t, d.Advance())
	}
}

func TestDraftStepValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *GroupDraft)
		atStep    Step
		wantField string
	}{
		{
			name:      "empty name blocks step 1",
			mutate:    func(d *GroupDraft) { d.GroupName = "   " },
			atStep:    Step1NameAndType,
			wantField: "group_name",
		},
		{
			name:      "bad item type blocks step 1",
			mutate:    func(d *GroupDraft) { d.ItemType = "goat" },
			atStep:    Step1NameAndType,
			wantField: "item_type",
		},
		{
			name:      "zero cost blocks step 2",
			mutate:    func(d *GroupDraft) { d.ItemCost = 0 },
			atStep:    Step2ItemCost,
			wantField: "item_cost",
		},
		{
			name:      "zero slots blocks step 3",
			mutate:    func(d *GroupDraft) { d.SlotCount = 0 },
			atStep:    Step3SlotCount,
			wantField: "slot_count",
		},
		{
			name:      "missing deadline blocks step 5 when not flexible",
			mutate:    func(d *GroupDraft) { d.Deadline = nil },
			atStep:    Step5Deadline,
			wantField: "deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(d)

			for d.Step() < tt.atStep {
				require.NoError(t, d.Advance())
			}

			err := d.Advance()
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.Equal(t, tt.atStep, d.Step(), "failed advance must not move the draft")
		})
	}
}

func TestDraftFlexibleSkipsDeadline(t *testing.T) {
	d := validDraft()
	d.Deadline = nil
	d.IsFlexible = true
	advanceToSummary(t, d)
	assert.Equal(t, Step6Summary, d.Step())
}

func TestDraftPastDeadlineAccepted(t *testing.T) {
	d := validDraft()
	past := time.Now().AddDate(0, -1, 0)
	d.Deadline = &past
	advanceToSummary(t, d)
	assert.Equal(t, Step6Summary, d.Step())
}

func TestDraftBounds(t *testing.T) {
	d := validDraft()

	d.Retreat()
	assert.Equal(t, Step1NameAndType, d.Step(), "retreat never goes below step 1")

	advanceToSummary(t, d)
	require.NoError(t, d.Advance())
	assert.Equal(t, Step6Summary, d.Step(), "advance never goes past step 6")

	d.Retreat()
	assert.Equal(t, Step5Deadline, d.Step())
}

func TestDraftHighCostWarningDoesNotBlock(t *testing.T) {
	d := validDraft()
	d.ItemCost = DefaultHighCostThreshold + 1
	assert.True(t, d.HighCost())
	advanceToSummary(t, d)
	assert.Equal(t, Step6Summary, d.Step())

	d.HighCostThreshold = d.ItemCost + 1
	assert.False(t, d.HighCost())
}

func TestDraftPerSlot(t *testing.T) {
	d := NewGroupDraft()
	assert.Equal(t, Money(0), d.PerSlot(), "no slots yet")

	d.ItemCost = 1_000_000
	d.SlotCount = 3
	assert.Equal(t, Money(333_333), d.PerSlot())
}

func TestDraftFinalize(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("before summary step fails with validation error", func(t *testing.T) {
		d := validDraft()
		_, _, err := d.Finalize("creator-1", now)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("produces group and creator member", func(t *testing.T) {
		d := validDraft()
		advanceToSummary(t, d)

		group, member, err := d.Finalize("creator-1", now)
		require.NoError(t, err)

		assert.Equal(t, "creator-1", group.CreatorID)
		assert.Equal(t, "Ramadan Cow Split", group.Name)
		assert.Equal(t, d.ItemCost, group.TotalGoal)
		assert.Equal(t, d.ItemCost/7, group.CostPerSlot)
		assert.Equal(t, 7, group.TotalSlots)
		assert.Equal(t, 0, group.FilledSlots, "finalize yields zero progress; the ledger applies the creator")
		assert.Equal(t, GroupActive, group.Status)

		assert.Equal(t, "creator-1", member.UserID)
		assert.Equal(t, 1, member.SlotsCount)
		assert.Equal(t, MemberPaid, member.Status)
	})

	t.Run("revalidates earlier steps", func(t *testing.T) {
		d := validDraft()
		advanceToSummary(t, d)
		d.GroupName = "" // invalidated after the fact

		_, _, err := d.Finalize("creator-1", now)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "group_name", vErr.Field)
	})
}
