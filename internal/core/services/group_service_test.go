package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gatherly-api/internal/adapters/persistence/models"
	"gatherly-api/internal/core/domain"
)

// fakeGroupRepo is an in-memory GroupRepository with the same version
// semantics as the MySQL implementation.
type fakeGroupRepo struct {
	groups  map[string]*models.Group
	members map[string]*models.GroupMember
	items   []*models.GroupItem

	// beforeCommit runs just before each CommitJoin, letting tests
	// interleave a concurrent writer.
	beforeCommit func()
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[string]*models.Group),
		members: make(map[string]*models.GroupMember),
	}
}

func (r *fakeGroupRepo) CreateGroup(ctx context.Context, group *models.Group, initialMember *models.GroupMember) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if initialMember.ID == "" {
		initialMember.ID = uuid.New().String()
	}
	initialMember.GroupID = group.ID
	stored := *group
	r.groups[group.ID] = &stored
	storedMember := *initialMember
	r.members[initialMember.ID] = &storedMember
	return nil
}

func (r *fakeGroupRepo) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *g
	return &copied, nil
}

func (r *fakeGroupRepo) ListGroups(ctx context.Context, offset, limit int) ([]*models.Group, int64, error) {
	var out []*models.Group
	for _, g := range r.groups {
		copied := *g
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

func (r *fakeGroupRepo) CommitJoin(ctx context.Context, group *models.Group, member *models.GroupMember, expectedVersion int) error {
	if r.beforeCommit != nil {
		r.beforeCommit()
	}
	stored, ok := r.groups[group.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrStaleWrite
	}
	updated := *group
	updated.Version = expectedVersion + 1
	r.groups[group.ID] = &updated
	group.Version = updated.Version

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	storedMember := *member
	r.members[member.ID] = &storedMember
	return nil
}

func (r *fakeGroupRepo) UpdateGroupStatus(ctx context.Context, group *models.Group, expectedVersion int) error {
	stored, ok := r.groups[group.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrStaleWrite
	}
	updated := *group
	updated.Version = expectedVersion + 1
	r.groups[group.ID] = &updated
	return nil
}

func (r *fakeGroupRepo) ListDeadlineCandidates(ctx context.Context, now time.Time) ([]*models.Group, error) {
	var out []*models.Group
	for _, g := range r.groups {
		if g.Status == string(domain.GroupActive) && !g.IsFlexible && g.Deadline != nil && g.Deadline.Before(now) {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	var out []*models.GroupMember
	for _, m := range r.members {
		if m.GroupID == groupID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) GetMember(ctx context.Context, id string) (*models.GroupMember, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeGroupRepo) UpdateMember(ctx context.Context, member *models.GroupMember) error {
	if _, ok := r.members[member.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeGroupRepo) AddItem(ctx context.Context, item *models.GroupItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	copied := *item
	r.items = append(r.items, &copied)
	return nil
}

func (r *fakeGroupRepo) ListItems(ctx context.Context, groupID string) ([]*models.GroupItem, error) {
	var out []*models.GroupItem
	for _, it := range r.items {
		if it.GroupID == groupID {
			copied := *it
			out = append(out, &copied)
		}
	}
	return out, nil
}

func validCreateInput() *CreateGroupInput {
	return &CreateGroupInput{
		GroupName:     "Ileya Cow Group",
		ItemType:      "cow",
		ItemName:      "Full cow, shared 10 ways",
		ItemCost:      1_000_000_00,
		SlotCount:     10,
		Deadline:      "2026-12-20",
		IsFlexible:    false,
		PaymentMethod: "paystack",
	}
}

func TestGroupService_Create(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, member, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)

	assert.NotEmpty(t, group.ID)
	assert.Equal(t, "user-1", group.CreatorID)
	assert.Equal(t, int64(1_000_000_00), group.TotalGoal)
	assert.Equal(t, int64(100_000_00), group.CostPerSlot)
	assert.Equal(t, 10, group.TotalSlots)

	// Creator holds the first slot already.
	assert.Equal(t, 1, group.FilledSlots)
	assert.Equal(t, int64(100_000_00), group.TotalRaised)
	assert.Equal(t, string(domain.GroupActive), group.Status)

	assert.Equal(t, "user-1", member.UserID)
	assert.Equal(t, 1, member.SlotsCount)
	assert.Equal(t, string(domain.MemberPaid), member.Status)
	require.NotNil(t, member.PaymentMethod)
	assert.Equal(t, "paystack", *member.PaymentMethod)
}

func TestGroupService_Create_RemainderOnCreator(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)

	input := validCreateInput()
	input.ItemCost = 1_000_000 // ₦10,000 in kobo, not divisible by 3
	input.SlotCount = 3

	group, member, err := svc.Create(context.Background(), "user-1", input)
	require.NoError(t, err)

	// 1_000_000 / 3 = 333_333 r 1; the creator absorbs the extra kobo.
	assert.Equal(t, int64(333_333), group.CostPerSlot)
	assert.Equal(t, int64(333_334), member.TotalContribution)
	assert.Equal(t, int64(333_334), group.TotalRaised)
}

func TestGroupService_Create_InvalidPayload(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	input := validCreateInput()
	input.ItemCost = 0

	_, _, err := svc.Create(context.Background(), "user-1", input)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "item_cost", vErr.Field)
}

func TestGroupService_Create_BadDeadlineFormat(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	input := validCreateInput()
	input.Deadline = "20/12/2026"

	_, _, err := svc.Create(context.Background(), "user-1", input)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "deadline", vErr.Field)
}

func TestGroupService_Preview(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	out, err := svc.Preview(validCreateInput())
	require.NoError(t, err)
	assert.True(t, out.Valid)
	assert.Empty(t, out.Errors)
	assert.Equal(t, int64(100_000_00), out.CostPerSlot)
	assert.Equal(t, "₦100,000", out.CostPerSlotDisplay)
	assert.False(t, out.HighCost)
}

func TestGroupService_Preview_CollectsAllErrors(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	out, err := svc.Preview(&CreateGroupInput{ItemType: "cow"})
	require.NoError(t, err)
	assert.False(t, out.Valid)

	fields := make([]string, 0, len(out.Errors))
	for _, e := range out.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "group_name")
	assert.Contains(t, fields, "item_cost")
	assert.Contains(t, fields, "slot_count")
	assert.Contains(t, fields, "deadline")
}

func TestGroupService_Preview_HighCostWarning(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	input := validCreateInput()
	input.ItemCost = 6_000_000 * 100

	out, err := svc.Preview(input)
	require.NoError(t, err)
	assert.True(t, out.Valid, "high cost warns but never blocks")
	assert.True(t, out.HighCost)
	assert.NotEmpty(t, out.HighCostMessage)
}

func TestGroupService_Join(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, _, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)

	member, err := svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 2, PaymentMethod: "apple_pay"})
	require.NoError(t, err)
	assert.Equal(t, 2, member.SlotsCount)
	assert.Equal(t, int64(200_000_00), member.TotalContribution)

	stored, err := svc.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FilledSlots)
	assert.Equal(t, int64(300_000_00), stored.TotalRaised)
}

func TestGroupService_Join_RetriesAfterStaleWrite(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, _, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)

	// Interleave a concurrent join before the first commit only.
	raced := false
	repo.beforeCommit = func() {
		if raced {
			return
		}
		raced = true
		stored := repo.groups[group.ID]
		stored.FilledSlots++
		stored.TotalRaised += stored.CostPerSlot
		stored.Version++
	}

	member, err := svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_00), member.TotalContribution)

	stored, err := svc.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.FilledSlots, "both the racer and the retried join landed")
	assert.Equal(t, int64(300_000_00), stored.TotalRaised)
}

func TestGroupService_Join_ConflictAfterMaxRetries(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, _, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)

	// Every commit loses the race.
	repo.beforeCommit = func() {
		repo.groups[group.ID].Version++
	}

	_, err = svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 1})
	assert.ErrorIs(t, err, ErrJoinConflict)
}

func TestGroupService_Join_SlotsExhausted(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	input := validCreateInput()
	input.SlotCount = 2
	group, _, err := svc.Create(ctx, "user-1", input)
	require.NoError(t, err)

	_, err = svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 2})
	assert.ErrorIs(t, err, domain.ErrSlotsExhausted)
}

func TestGroupService_Join_GroupNotFound(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	_, err := svc.Join(context.Background(), uuid.New().String(), "user-2", &JoinInput{SlotsCount: 1})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGroupService_Join_BadPaymentMethod(t *testing.T) {
	svc := NewGroupService(newFakeGroupRepo(), 0)

	_, err := svc.Join(context.Background(), "any", "user-2", &JoinInput{SlotsCount: 1, PaymentMethod: "cash"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "payment_method", vErr.Field)
}

func TestGroupService_Join_CompletesGroup(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	input := validCreateInput()
	input.SlotCount = 3
	input.ItemCost = 1_000_000
	group, _, err := svc.Create(ctx, "user-1", input)
	require.NoError(t, err)

	_, err = svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 2})
	require.NoError(t, err)

	stored, err := svc.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.GroupCompleted), stored.Status)
	assert.Equal(t, stored.TotalGoal, stored.TotalRaised, "raised reconciles to the goal exactly")
}

func TestGroupService_UpdateMember(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, _, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)
	member, err := svc.Join(ctx, group.ID, "user-2", &JoinInput{SlotsCount: 1})
	require.NoError(t, err)

	updated, err := svc.UpdateMember(ctx, member.ID, "user-2", &UpdateMemberInput{Status: "completed", PaymentMethod: "apple_pay"})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	require.NotNil(t, updated.PaymentMethod)
	assert.Equal(t, "apple_pay", *updated.PaymentMethod)

	// Only the member themselves may patch their row.
	_, err = svc.UpdateMember(ctx, member.ID, "user-3", &UpdateMemberInput{Status: "paid"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = svc.UpdateMember(ctx, member.ID, "user-2", &UpdateMemberInput{Status: "refunded"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestGroupService_Items(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewGroupService(repo, 0)
	ctx := context.Background()

	group, _, err := svc.Create(ctx, "user-1", validCreateInput())
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, group.ID, "user-1", &AddItemInput{Name: "Cow leg", UnitCost: 50_000_00, Quantity: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	// Non-creators cannot attach items.
	_, err = svc.AddItem(ctx, group.ID, "user-2", &AddItemInput{Name: "Knife"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	items, err := svc.Items(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cow leg", items[0].Name)
}

// fakeTokenRepo only tracks DeleteExpired calls for the deadline service.
type fakeTokenRepo struct {
	deleteExpiredCalls int
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error { return nil }
func (r *fakeTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeTokenRepo) Revoke(ctx context.Context, id uint) error                 { return nil }
func (r *fakeTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error { return nil }
func (r *fakeTokenRepo) RevokeAllByUserID(ctx context.Context, userID string) error    { return nil }
func (r *fakeTokenRepo) DeleteExpired(ctx context.Context) error {
	r.deleteExpiredCalls++
	return nil
}

func TestDeadlineService_SweepDeadlines(t *testing.T) {
	repo := newFakeGroupRepo()
	groupSvc := NewGroupService(repo, 0)
	ctx := context.Background()

	expired := validCreateInput()
	expired.Deadline = "2026-01-01"
	expiredGroup, _, err := groupSvc.Create(ctx, "user-1", expired)
	require.NoError(t, err)

	flexible := validCreateInput()
	flexible.Deadline = ""
	flexible.IsFlexible = true
	flexibleGroup, _, err := groupSvc.Create(ctx, "user-1", flexible)
	require.NoError(t, err)

	svc := NewDeadlineService(repo, &fakeTokenRepo{})
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	closed := svc.SweepDeadlines(ctx)
	assert.Equal(t, 1, closed)

	stored, err := groupSvc.GetByID(ctx, expiredGroup.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.GroupClosed), stored.Status)

	stored, err = groupSvc.GetByID(ctx, flexibleGroup.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.GroupActive), stored.Status)

	// Idempotent: nothing left to close.
	assert.Equal(t, 0, svc.SweepDeadlines(ctx))
}

func TestDeadlineService_SweepSkipsStaleWrites(t *testing.T) {
	repo := newFakeGroupRepo()
	groupSvc := NewGroupService(repo, 0)
	ctx := context.Background()

	input := validCreateInput()
	input.Deadline = "2026-01-01"
	group, _, err := groupSvc.Create(ctx, "user-1", input)
	require.NoError(t, err)

	// Snapshot the group, then let a concurrent writer bump the version.
	stale, err := repo.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	repo.groups[group.ID].Version++

	stale.Status = string(domain.GroupClosed)
	err = repo.UpdateGroupStatus(ctx, stale, stale.Version)
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	// The group stays untouched for the next sweep.
	stored, err := repo.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.GroupActive), stored.Status)
}
