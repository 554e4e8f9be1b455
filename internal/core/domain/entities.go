package domain

import "time"

// GroupStatus represents the lifecycle state of a group
type GroupStatus string

const (
	GroupActive    GroupStatus = "active"
	GroupClosed    GroupStatus = "closed"
	GroupCompleted GroupStatus = "completed"
)

// MemberStatus represents a member's payment state
type MemberStatus string

const (
	MemberPending   MemberStatus = "pending"
	MemberPaid      MemberStatus = "paid"
	MemberCompleted MemberStatus = "completed"
)

// PaymentMethod is how a member pays for their slots
type PaymentMethod string

const (
	PaymentApplePay PaymentMethod = "apple_pay"
	PaymentPaystack PaymentMethod = "paystack"
)

// ItemType is what a group pools money for
type ItemType string

const (
	ItemTypeCow  ItemType = "cow"
	ItemTypeItem ItemType = "item"
)

// Group is a funding campaign: a total goal split across slots that members
// claim by paying CostPerSlot each.
type Group struct {
	ID          string
	CreatorID   string
	Name        string
	Description string
	ItemType    ItemType
	TotalGoal   Money
	CostPerSlot Money
	TotalSlots  int
	FilledSlots int
	TotalRaised Money
	Deadline    *time.Time
	IsFlexible  bool
	Status      GroupStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Remainder is the rounding residue of splitting TotalGoal across TotalSlots.
// Policy: it is charged to the creator's first slot so a fully-slotted group
// raises exactly TotalGoal.
func (g *Group) Remainder() Money {
	return g.TotalGoal - g.CostPerSlot*Money(g.TotalSlots)
}

// SlotsLeft returns how many slots are still unclaimed.
func (g *Group) SlotsLeft() int {
	return g.TotalSlots - g.FilledSlots
}

// GroupMember is a user's claim on one or more slots of a group.
type GroupMember struct {
	ID                string
	GroupID           string
	UserID            string
	SlotsCount        int
	TotalContribution Money
	PaymentMethod     *PaymentMethod
	Status            MemberStatus
	JoinedAt          time.Time
}

// GroupItem is optional metadata describing what a group is pooling for.
// It carries no funding-relevant invariants.
type GroupItem struct {
	ID        string
	GroupID   string
	Name      string
	UnitCost  Money
	Quantity  int
	CreatedAt time.Time
}
