package domain

import (
	"strings"
	"time"
)

// Step is a position in the create-group wizard.
type Step int

const (
	Step1NameAndType Step = iota + 1
	Step2ItemCost
	Step3SlotCount
	Step4ItemDescription
	Step5Deadline
	Step6Summary
)

// DefaultHighCostThreshold is ₦5,000,000 in kobo. Costs above it surface a
// non-blocking warning, they never block advancement.
const DefaultHighCostThreshold Money = 5_000_000 * 100

// GroupDraft accumulates wizard input across the six ordered steps. It is
// owned by a single creating session, never persisted, and discarded after a
// successful Finalize.
//
// Fields are mutated directly; validation is lazy and only evaluated when
// Advance or Finalize is called.
type GroupDraft struct {
	GroupName  string
	ItemType   ItemType
	ItemName   string
	ItemCost   Money
	SlotCount  int
	Deadline   *time.Time
	IsFlexible bool

	// HighCostThreshold overrides DefaultHighCostThreshold when positive.
	HighCostThreshold Money

	step Step
}

// NewGroupDraft creates an empty draft positioned at step 1.
// ItemType defaults to cow, matching the app's initial form state.
func NewGroupDraft() *GroupDraft {
	return &GroupDraft{
		ItemType: ItemTypeCow,
		step:     Step1NameAndType,
	}
}

// Step returns the draft's current wizard step.
func (d *GroupDraft) Step() Step {
	return d.step
}

// Advance moves to the next step if the current step's predicate holds.
// It returns the unmet predicate as a *ValidationError otherwise.
// Advance never moves past step 6.
func (d *GroupDraft) Advance() error {
	if err := d.ValidateStep(d.step); err != nil {
		return err
	}
	if d.step < Step6Summary {
		d.step++
	}
	return nil
}

// Retreat moves one step back, unconditionally, never below step 1.
func (d *GroupDraft) Retreat() {
	if d.step > Step1NameAndType {
		d.step--
	}
}

// ValidateStep checks a single step's predicate without moving the draft.
func (d *GroupDraft) ValidateStep(s Step) error {
	switch s {
	case Step1NameAndType:
		if strings.TrimSpace(d.GroupName) == "" {
			return NewValidationError("group_name", "group name is required")
		}
		if d.ItemType != ItemTypeCow && d.ItemType != ItemTypeItem {
			return NewValidationError("item_type", "item type must be cow or item")
		}
	case Step2ItemCost:
		if d.ItemCost <= 0 {
			return NewValidationError("item_cost", "please enter a valid cost")
		}
	case Step3SlotCount:
		if d.SlotCount < 1 {
			return NewValidationError("slot_count", "at least one slot is required")
		}
	case Step4ItemDescription:
		// Item description is optional.
	case Step5Deadline:
		// Past-dated deadlines are accepted; only presence is checked.
		if !d.IsFlexible && d.Deadline == nil {
			return NewValidationError("deadline", "a deadline is required unless the group is flexible")
		}
	case Step6Summary:
		// Read-only review step.
	default:
		return NewValidationError("step", "unknown step")
	}
	return nil
}

// HighCost reports whether the entered cost exceeds the warning threshold.
// Non-blocking: the wizard shows a warning but still advances.
func (d *GroupDraft) HighCost() bool {
	threshold := d.HighCostThreshold
	if threshold <= 0 {
		threshold = DefaultHighCostThreshold
	}
	return d.ItemCost > threshold
}

// PerSlot returns the derived cost per slot for live display.
// Zero until both cost and slot count are set.
func (d *GroupDraft) PerSlot() Money {
	alloc, err := Allocate(d.ItemCost, d.SlotCount)
	if err != nil {
		return 0
	}
	return alloc.CostPerSlot
}

// Finalize turns a completed draft into a Group plus the creator's initial
// membership claiming one slot. It is only callable from step 6 and re-checks
// every step; the first unmet predicate is returned as a *ValidationError.
//
// The returned group has zero funding progress; the caller applies the
// creator member through ApplyJoin so the rounding-remainder policy has a
// single code path.
func (d *GroupDraft) Finalize(creatorID string, now time.Time) (*Group, *GroupMember, error) {
	if d.step != Step6Summary {
		return nil, nil, NewValidationError("step", "draft is not at the review step")
	}
	for s := Step1NameAndType; s <= Step6Summary; s++ {
		if err := d.ValidateStep(s); err != nil {
			return nil, nil, err
		}
	}

	alloc, err := Allocate(d.ItemCost, d.SlotCount)
	if err != nil {
		return nil, nil, err
	}

	group := &Group{
		CreatorID:   creatorID,
		Name:        strings.TrimSpace(d.GroupName),
		Description: strings.TrimSpace(d.ItemName),
		ItemType:    d.ItemType,
		TotalGoal:   d.ItemCost,
		CostPerSlot: alloc.CostPerSlot,
		TotalSlots:  d.SlotCount,
		Deadline:    d.Deadline,
		IsFlexible:  d.IsFlexible,
		Status:      GroupActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Hosts take the first slot themselves; buyers trust hosts who do.
	member := &GroupMember{
		UserID:     creatorID,
		SlotsCount: 1,
		Status:     MemberPaid,
		JoinedAt:   now,
	}

	return group, member, nil
}
