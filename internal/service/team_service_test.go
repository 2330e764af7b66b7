package service

import (
	"context"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

type fakeMemberRepo struct {
	store   *memStore
	members map[string]*domain.Member
}

func newFakeMemberRepo(store *memStore) *fakeMemberRepo {
	return &fakeMemberRepo{store: store, members: make(map[string]*domain.Member)}
}

func (r *fakeMemberRepo) Create(_ context.Context, member *domain.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	member.ID = uuid.NewString()
	member.CreatedAt = r.store.tick()
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeMemberRepo) Update(_ context.Context, member *domain.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.members[member.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *member
	r.members[member.ID] = &copied
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	member, ok := r.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *member
	return &copied, nil
}

func (r *fakeMemberRepo) GetByTeamAndUser(_ context.Context, teamID, userID string) (*domain.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, member := range r.members {
		if member.TeamID == teamID && member.UserID == userID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMemberRepo) ListByTeam(_ context.Context, teamID string) ([]domain.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Member
	for _, member := range r.members {
		if member.TeamID == teamID {
			out = append(out, *member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMemberRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	member, ok := r.members[id]
	if !ok || member.DeactivatedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.store.tick()
	member.DeactivatedAt = &now
	return nil
}

type teamEnv struct {
	store   *memStore
	service *TeamService
	creator *domain.User
}

func newTeamEnv(t *testing.T) *teamEnv {
	t.Helper()
	store := newMemStore()
	return &teamEnv{
		store:   store,
		creator: store.addUser("alice"),
		service: NewTeamService(TeamDependencies{
			TeamRepo:   &fakeTeamRepo{store: store},
			MemberRepo: newFakeMemberRepo(store),
			UserRepo:   &fakeUserRepo{store: store},
			Logger:     zap.NewNop(),
		}),
	}
}

func TestCreateTeamEnrollsCreatorAsAdmin(t *testing.T) {
	env := newTeamEnv(t)
	ctx := context.Background()

	team, err := env.service.CreateTeam(ctx, env.creator.ID, "bugslotics", "a pretty cool team")
	require.NoError(t, err)

	member, err := env.service.MemberOf(ctx, team.ID, env.creator.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRoleAdmin, member.Role)
	assert.True(t, member.IsAdmin())
	assert.NotNil(t, member.ActivatedAt)
}

func TestJoinStartsUnapproved(t *testing.T) {
	env := newTeamEnv(t)
	ctx := context.Background()

	team, err := env.service.CreateTeam(ctx, env.creator.ID, "bugslotics", "")
	require.NoError(t, err)

	bob := env.store.addUser("bob")
	member, err := env.service.Join(ctx, bob.ID, team.ID, "hi", "they/them")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRoleUnapproved, member.Role)
	assert.False(t, member.CanWrite())

	_, err = env.service.Join(ctx, bob.ID, team.ID, "", "")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestSetMemberRoleRequiresAdmin(t *testing.T) {
	env := newTeamEnv(t)
	ctx := context.Background()

	team, err := env.service.CreateTeam(ctx, env.creator.ID, "bugslotics", "")
	require.NoError(t, err)

	bob := env.store.addUser("bob")
	carol := env.store.addUser("carol")
	bobMember, err := env.service.Join(ctx, bob.ID, team.ID, "", "")
	require.NoError(t, err)
	carolMember, err := env.service.Join(ctx, carol.ID, team.ID, "", "")
	require.NoError(t, err)

	_, err = env.service.SetMemberRole(ctx, bob.ID, carolMember.ID, domain.MemberRoleApproved)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	promoted, err := env.service.SetMemberRole(ctx, env.creator.ID, bobMember.ID, domain.MemberRoleApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.MemberRoleApproved, promoted.Role)
	assert.NotNil(t, promoted.ActivatedAt)
	assert.True(t, promoted.CanWrite())
}

func TestDeactivateMemberSelfOrAdmin(t *testing.T) {
	env := newTeamEnv(t)
	ctx := context.Background()

	team, err := env.service.CreateTeam(ctx, env.creator.ID, "bugslotics", "")
	require.NoError(t, err)

	bob := env.store.addUser("bob")
	carol := env.store.addUser("carol")
	bobMember, err := env.service.Join(ctx, bob.ID, team.ID, "", "")
	require.NoError(t, err)
	carolMember, err := env.service.Join(ctx, carol.ID, team.ID, "", "")
	require.NoError(t, err)

	// A non-admin cannot remove someone else.
	err = env.service.DeactivateMember(ctx, bob.ID, carolMember.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// Self-removal works regardless of role.
	require.NoError(t, env.service.DeactivateMember(ctx, bob.ID, bobMember.ID))
	_, err = env.service.MemberOf(ctx, team.ID, bob.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// Admins can remove anyone.
	require.NoError(t, env.service.DeactivateMember(ctx, env.creator.ID, carolMember.ID))
}

func TestUpdateTeamRequiresAdmin(t *testing.T) {
	env := newTeamEnv(t)
	ctx := context.Background()

	team, err := env.service.CreateTeam(ctx, env.creator.ID, "bugslotics", "")
	require.NoError(t, err)

	bob := env.store.addUser("bob")
	_, err = env.service.Join(ctx, bob.ID, team.ID, "", "")
	require.NoError(t, err)

	team.Name = "renamed"
	err = env.service.UpdateTeam(ctx, bob.ID, team)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	require.NoError(t, env.service.UpdateTeam(ctx, env.creator.ID, team))
	fetched, err := env.service.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", fetched.Name)
}
