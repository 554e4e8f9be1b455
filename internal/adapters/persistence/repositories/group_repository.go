package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gatherly-api/internal/adapters/persistence/models"
	"gatherly-api/internal/core/domain"
)

// groupRepository implements GroupRepository on GORM/MySQL
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

// CreateGroup persists a new group together with its initial member
// (the creator's slot) in one transaction.
func (r *groupRepository) CreateGroup(ctx context.Context, group *models.Group, initialMember *models.GroupMember) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if initialMember.ID == "" {
		initialMember.ID = uuid.New().String()
	}
	initialMember.GroupID = group.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(initialMember).Error
	})
}

// GetGroup gets a group by ID
func (r *groupRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListGroups lists groups newest first with pagination
func (r *groupRepository) ListGroups(ctx context.Context, offset, limit int) ([]*models.Group, int64, error) {
	var groups []*models.Group
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Group{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&groups).Error

	return groups, total, err
}

// CommitJoin writes an applied join: the updated group aggregates plus the new
// member row, in one transaction. The group update is conditional on
// expectedVersion; if another join won the race, nothing is written and
// domain.ErrStaleWrite is returned so the caller can re-read and retry.
func (r *groupRepository) CommitJoin(ctx context.Context, group *models.Group, member *models.GroupMember, expectedVersion int) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.GroupID = group.ID

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Group{}).
			Where("id = ? AND version = ?", group.ID, expectedVersion).
			Updates(map[string]interface{}{
				"filled_slots": group.FilledSlots,
				"total_raised": group.TotalRaised,
				"status":       group.Status,
				"version":      expectedVersion + 1,
				"updated_at":   group.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleWrite
		}
		group.Version = expectedVersion + 1

		return tx.Create(member).Error
	})
}

// UpdateGroupStatus writes a status transition (the deadline sweep) with the
// same optimistic version check as CommitJoin.
func (r *groupRepository) UpdateGroupStatus(ctx context.Context, group *models.Group, expectedVersion int) error {
	res := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ? AND version = ?", group.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     group.Status,
			"version":    expectedVersion + 1,
			"updated_at": group.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleWrite
	}
	group.Version = expectedVersion + 1
	return nil
}

// ListDeadlineCandidates returns active, non-flexible groups whose deadline
// has passed.
func (r *groupRepository) ListDeadlineCandidates(ctx context.Context, now time.Time) ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.WithContext(ctx).
		Where("status = ?", "active").
		Where("is_flexible = ?", false).
		Where("deadline IS NOT NULL AND deadline < ?", now).
		Find(&groups).Error
	return groups, err
}

// ListMembers lists a group's members in join order
func (r *groupRepository) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	var members []*models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

// GetMember gets a member by ID
func (r *groupRepository) GetMember(ctx context.Context, id string) (*models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember updates a member row
func (r *groupRepository) UpdateMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// AddItem adds an item to a group
func (r *groupRepository) AddItem(ctx context.Context, item *models.GroupItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// ListItems lists a group's items
func (r *groupRepository) ListItems(ctx context.Context, groupID string) ([]*models.GroupItem, error) {
	var items []*models.GroupItem
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}
