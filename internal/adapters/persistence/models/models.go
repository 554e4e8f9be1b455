package models

import (
	"time"

	"gorm.io/gorm"

	"gatherly-api/internal/core/domain"
)

// ============================================================
// Auth tables
// ============================================================

// User represents users table
type User struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"index;size:36;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Group funding tables
// ============================================================

// Group represents groups table. Version implements optimistic locking:
// every funding update must match the version it read or be retried.
type Group struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	CreatorID   string         `gorm:"index;size:36;not null" json:"creator_id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	ItemType    string         `gorm:"size:20;not null" json:"item_type"`
	TotalGoal   int64          `gorm:"not null" json:"total_goal"`
	CostPerSlot int64          `gorm:"not null" json:"cost_per_slot"`
	TotalSlots  int            `gorm:"not null" json:"total_slots"`
	FilledSlots int            `gorm:"not null;default:0" json:"filled_slots"`
	TotalRaised int64          `gorm:"not null;default:0" json:"total_raised"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	IsFlexible  bool           `gorm:"default:false" json:"is_flexible"`
	Status      string         `gorm:"size:20;not null;default:'active';index" json:"status"`
	Version     int            `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Creator User `gorm:"foreignKey:CreatorID" json:"-"`
}

func (Group) TableName() string {
	return "groups"
}

// ToDomain converts the row to a domain group snapshot.
func (g *Group) ToDomain() domain.Group {
	return domain.Group{
		ID:          g.ID,
		CreatorID:   g.CreatorID,
		Name:        g.Name,
		Description: g.Description,
		ItemType:    domain.ItemType(g.ItemType),
		TotalGoal:   domain.Money(g.TotalGoal),
		CostPerSlot: domain.Money(g.CostPerSlot),
		TotalSlots:  g.TotalSlots,
		FilledSlots: g.FilledSlots,
		TotalRaised: domain.Money(g.TotalRaised),
		Deadline:    g.Deadline,
		IsFlexible:  g.IsFlexible,
		Status:      domain.GroupStatus(g.Status),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// ApplyDomain copies a domain snapshot's mutable funding state back onto the row.
func (g *Group) ApplyDomain(d domain.Group) {
	g.FilledSlots = d.FilledSlots
	g.TotalRaised = int64(d.TotalRaised)
	g.Status = string(d.Status)
	g.UpdatedAt = d.UpdatedAt
}

// GroupFromDomain builds a new row from a domain group.
func GroupFromDomain(d domain.Group) *Group {
	return &Group{
		ID:          d.ID,
		CreatorID:   d.CreatorID,
		Name:        d.Name,
		Description: d.Description,
		ItemType:    string(d.ItemType),
		TotalGoal:   int64(d.TotalGoal),
		CostPerSlot: int64(d.CostPerSlot),
		TotalSlots:  d.TotalSlots,
		FilledSlots: d.FilledSlots,
		TotalRaised: int64(d.TotalRaised),
		Deadline:    d.Deadline,
		IsFlexible:  d.IsFlexible,
		Status:      string(d.Status),
	}
}

// GroupMember represents group_members table
type GroupMember struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	GroupID           string    `gorm:"index;size:36;not null" json:"group_id"`
	UserID            string    `gorm:"index;size:36;not null" json:"user_id"`
	SlotsCount        int       `gorm:"not null" json:"slots_count"`
	TotalContribution int64     `gorm:"not null" json:"total_contribution"`
	PaymentMethod     *string   `gorm:"size:20" json:"payment_method,omitempty"`
	Status            string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	JoinedAt          time.Time `gorm:"autoCreateTime;index" json:"joined_at"`

	Group Group `gorm:"foreignKey:GroupID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// ToDomain converts the row to a domain member.
func (m *GroupMember) ToDomain() domain.GroupMember {
	var method *domain.PaymentMethod
	if m.PaymentMethod != nil {
		pm := domain.PaymentMethod(*m.PaymentMethod)
		method = &pm
	}
	return domain.GroupMember{
		ID:                m.ID,
		GroupID:           m.GroupID,
		UserID:            m.UserID,
		SlotsCount:        m.SlotsCount,
		TotalContribution: domain.Money(m.TotalContribution),
		PaymentMethod:     method,
		Status:            domain.MemberStatus(m.Status),
		JoinedAt:          m.JoinedAt,
	}
}

// MemberFromDomain builds a new row from a domain member.
func MemberFromDomain(d domain.GroupMember) *GroupMember {
	var method *string
	if d.PaymentMethod != nil {
		s := string(*d.PaymentMethod)
		method = &s
	}
	return &GroupMember{
		ID:                d.ID,
		GroupID:           d.GroupID,
		UserID:            d.UserID,
		SlotsCount:        d.SlotsCount,
		TotalContribution: int64(d.TotalContribution),
		PaymentMethod:     method,
		Status:            string(d.Status),
		JoinedAt:          d.JoinedAt,
	}
}

// GroupItem represents group_items table
type GroupItem struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	GroupID   string    `gorm:"index;size:36;not null" json:"group_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	UnitCost  int64     `gorm:"not null" json:"unit_cost"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}

func (GroupItem) TableName() string {
	return "group_items"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Group{},
		&GroupMember{},
		&GroupItem{},
	)
}
