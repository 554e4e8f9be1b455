package repositories

import (
	"context"
	"time"

	"gatherly-api/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) error
}

// GroupRepository defines group funding storage. CommitJoin and
// UpdateGroupStatus are conditional on the version the caller read: a version
// mismatch returns ErrStaleWrite and writes nothing, so domain.ApplyJoin
// results are applied as atomic read-modify-writes.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group, initialMember *models.GroupMember) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context, offset, limit int) ([]*models.Group, int64, error)
	CommitJoin(ctx context.Context, group *models.Group, member *models.GroupMember, expectedVersion int) error
	UpdateGroupStatus(ctx context.Context, group *models.Group, expectedVersion int) error
	ListDeadlineCandidates(ctx context.Context, now time.Time) ([]*models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	GetMember(ctx context.Context, id string) (*models.GroupMember, error)
	UpdateMember(ctx context.Context, member *models.GroupMember) error
	AddItem(ctx context.Context, item *models.GroupItem) error
	ListItems(ctx context.Context, groupID string) ([]*models.GroupItem, error)
}
