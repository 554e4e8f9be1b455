package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"gatherly-api/internal/adapters/persistence/models"
	"gatherly-api/internal/adapters/persistence/repositories"
	"gatherly-api/internal/core/domain"
	"gatherly-api/internal/pkg/format"
)

// Group service errors
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("group member not found")
	ErrNotAuthorized  = errors.New("not authorized")
	ErrJoinConflict   = errors.New("group is being updated, please try again")
)

// maxJoinRetries bounds the read-apply-commit loop on concurrent joins.
// This is the only retry point in the system.
const maxJoinRetries = 3

// GroupService handles group funding business logic
type GroupService struct {
	groupRepo         repositories.GroupRepository
	highCostThreshold domain.Money
	now               func() time.Time
}

// NewGroupService creates a new group service. A non-positive threshold falls
// back to the domain default (₦5,000,000).
func NewGroupService(groupRepo repositories.GroupRepository, highCostThreshold domain.Money) *GroupService {
	return &GroupService{
		groupRepo:         groupRepo,
		highCostThreshold: highCostThreshold,
		now:               time.Now,
	}
}

// CreateGroupInput represents the full wizard payload
type CreateGroupInput struct {
	GroupName     string `json:"group_name" validate:"required"`
	ItemType      string `json:"item_type" validate:"required,oneof=cow item"`
	ItemName      string `json:"item_name,omitempty"`
	ItemCost      int64  `json:"item_cost" validate:"required,gt=0"`
	SlotCount     int    `json:"slot_count" validate:"required,gte=1"`
	Deadline      string `json:"deadline,omitempty"` // YYYY-MM-DD
	IsFlexible    bool   `json:"is_flexible"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// draftFromInput rebuilds the wizard draft from a submitted payload.
func (s *GroupService) draftFromInput(input *CreateGroupInput) (*domain.GroupDraft, error) {
	d := domain.NewGroupDraft()
	d.GroupName = input.GroupName
	d.ItemType = domain.ItemType(input.ItemType)
	d.ItemName = input.ItemName
	d.ItemCost = domain.Money(input.ItemCost)
	d.SlotCount = input.SlotCount
	d.IsFlexible = input.IsFlexible
	d.HighCostThreshold = s.highCostThreshold

	if input.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", input.Deadline)
		if err != nil {
			return nil, domain.NewValidationError("deadline", "invalid date format, use YYYY-MM-DD")
		}
		d.Deadline = &deadline
	}

	return d, nil
}

// Create walks the submitted payload through the six wizard steps so invalid
// payloads fail with the same per-step errors the app shows, then finalizes
// the draft, applies the creator's first slot through the funding ledger, and
// persists group + member atomically.
func (s *GroupService) Create(ctx context.Context, creatorID string, input *CreateGroupInput) (*models.Group, *models.GroupMember, error) {
	draft, err := s.draftFromInput(input)
	if err != nil {
		return nil, nil, err
	}

	for draft.Step() < domain.Step6Summary {
		if err := draft.Advance(); err != nil {
			return nil, nil, err
		}
	}

	now := s.now()
	group, creator, err := draft.Finalize(creatorID, now)
	if err != nil {
		return nil, nil, err
	}

	if input.PaymentMethod != "" {
		method, err := parsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, nil, err
		}
		creator.PaymentMethod = &method
	}

	// The creator's first slot goes through the ledger so the rounding
	// remainder is charged exactly once.
	updated, member, err := domain.ApplyJoin(*group, *creator, now)
	if err != nil {
		return nil, nil, err
	}

	groupModel := models.GroupFromDomain(updated)
	memberModel := models.MemberFromDomain(member)

	if err := s.groupRepo.CreateGroup(ctx, groupModel, memberModel); err != nil {
		return nil, nil, err
	}

	log.Printf("✅ Group created: %s (%s, %d slots, goal %s)",
		groupModel.Name, groupModel.ID, groupModel.TotalSlots, format.Naira(updated.TotalGoal))

	return groupModel, memberModel, nil
}

// PreviewOutput carries the derived values the wizard displays live.
type PreviewOutput struct {
	Valid              bool                  `json:"valid"`
	Errors             []*domain.ValidationError `json:"errors,omitempty"`
	CostPerSlot        int64                 `json:"cost_per_slot"`
	CostPerSlotDisplay string                `json:"cost_per_slot_display"`
	Remainder          int64                 `json:"remainder"`
	HighCost           bool                  `json:"high_cost"`
	HighCostMessage    string                `json:"high_cost_message,omitempty"`
}

// Preview validates a draft payload without persisting anything and returns
// the derived per-slot cost for live display.
func (s *GroupService) Preview(input *CreateGroupInput) (*PreviewOutput, error) {
	draft, err := s.draftFromInput(input)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return &PreviewOutput{Errors: []*domain.ValidationError{vErr}}, nil
		}
		return nil, err
	}

	out := &PreviewOutput{Valid: true}
	for step := domain.Step1NameAndType; step <= domain.Step6Summary; step++ {
		if err := draft.ValidateStep(step); err != nil {
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				out.Valid = false
				out.Errors = append(out.Errors, vErr)
			}
		}
	}

	if alloc, err := domain.Allocate(draft.ItemCost, draft.SlotCount); err == nil {
		out.CostPerSlot = int64(alloc.CostPerSlot)
		out.CostPerSlotDisplay = format.Naira(alloc.CostPerSlot)
		out.Remainder = int64(alloc.Remainder)
	}

	if draft.HighCost() {
		out.HighCost = true
		out.HighCostMessage = "Ah ah now, is this not too high for a " + string(draft.ItemType) + "?"
	}

	return out, nil
}

// GetByID gets a group by ID
func (s *GroupService) GetByID(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.groupRepo.GetGroup(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// List lists groups newest first
func (s *GroupService) List(ctx context.Context, offset, limit int) ([]*models.Group, int64, error) {
	return s.groupRepo.ListGroups(ctx, offset, limit)
}

// JoinInput represents a join request
type JoinInput struct {
	SlotsCount    int    `json:"slots_count" validate:"required,gte=1"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// Join claims slots on a group for a user. Each attempt reads a fresh group
// snapshot, applies the join through the pure ledger, and commits it with an
// optimistic version check; a stale commit is retried against the new state
// up to maxJoinRetries times before surfacing a conflict.
func (s *GroupService) Join(ctx context.Context, groupID, userID string, input *JoinInput) (*models.GroupMember, error) {
	var method *domain.PaymentMethod
	if input.PaymentMethod != "" {
		m, err := parsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		method = &m
	}

	for attempt := 0; attempt < maxJoinRetries; attempt++ {
		groupModel, err := s.groupRepo.GetGroup(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, err
		}

		member := domain.GroupMember{
			UserID:        userID,
			SlotsCount:    input.SlotsCount,
			PaymentMethod: method,
			Status:        domain.MemberPaid,
		}

		updated, applied, err := domain.ApplyJoin(groupModel.ToDomain(), member, s.now())
		if err != nil {
			return nil, err
		}

		groupModel.ApplyDomain(updated)
		memberModel := models.MemberFromDomain(applied)

		err = s.groupRepo.CommitJoin(ctx, groupModel, memberModel, groupModel.Version)
		if errors.Is(err, domain.ErrStaleWrite) {
			log.Printf("⚠️ Join conflict on group %s (attempt %d), retrying", groupID, attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Printf("✅ User %s joined group %s (%d slots, %s)",
			userID, groupID, applied.SlotsCount, format.Naira(applied.TotalContribution))
		return memberModel, nil
	}

	return nil, ErrJoinConflict
}

// Members lists a group's members
func (s *GroupService) Members(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListMembers(ctx, groupID)
}

// UpdateMemberInput represents a member patch
type UpdateMemberInput struct {
	Status        string `json:"status,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// UpdateMember patches a member's payment status or method. Only the member
// themselves may do this.
func (s *GroupService) UpdateMember(ctx context.Context, memberID, userID string, input *UpdateMemberInput) (*models.GroupMember, error) {
	member, err := s.groupRepo.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	if member.UserID != userID {
		return nil, ErrNotAuthorized
	}

	if input.Status != "" {
		status := domain.MemberStatus(input.Status)
		switch status {
		case domain.MemberPending, domain.MemberPaid, domain.MemberCompleted:
			member.Status = string(status)
		default:
			return nil, domain.NewValidationError("status", "must be pending, paid or completed")
		}
	}

	if input.PaymentMethod != "" {
		method, err := parsePaymentMethod(input.PaymentMethod)
		if err != nil {
			return nil, err
		}
		m := string(method)
		member.PaymentMethod = &m
	}

	if err := s.groupRepo.UpdateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// AddItemInput represents a group item payload
type AddItemInput struct {
	Name     string `json:"name" validate:"required"`
	UnitCost int64  `json:"unit_cost" validate:"gte=0"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// AddItem attaches item metadata to a group. Creator only.
func (s *GroupService) AddItem(ctx context.Context, groupID, userID string, input *AddItemInput) (*models.GroupItem, error) {
	group, err := s.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != userID {
		return nil, ErrNotAuthorized
	}

	if input.Name == "" {
		return nil, domain.NewValidationError("name", "item name is required")
	}
	if input.UnitCost < 0 {
		return nil, domain.NewValidationError("unit_cost", "unit cost cannot be negative")
	}
	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item := &models.GroupItem{
		GroupID:  groupID,
		Name:     input.Name,
		UnitCost: input.UnitCost,
		Quantity: quantity,
	}
	if err := s.groupRepo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Items lists a group's items
func (s *GroupService) Items(ctx context.Context, groupID string) ([]*models.GroupItem, error) {
	if _, err := s.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return s.groupRepo.ListItems(ctx, groupID)
}

func parsePaymentMethod(raw string) (domain.PaymentMethod, error) {
	method := domain.PaymentMethod(raw)
	switch method {
	case domain.PaymentApplePay, domain.PaymentPaystack:
		return method, nil
	default:
		return "", domain.NewValidationError("payment_method", "must be apple_pay or paystack")
	}
}
