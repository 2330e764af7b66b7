package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/tree"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

type ticketEnv struct {
	store   *memStore
	service *TicketService
	team    *domain.Team
	user    *domain.User
}

func newTicketEnv(t *testing.T) *ticketEnv {
	t.Helper()
	store := newMemStore()
	env := &ticketEnv{
		store: store,
		team:  store.addTeam("bugslotics"),
		user:  store.addUser("alice"),
	}
	env.service = NewTicketService(TicketDependencies{
		TicketRepo:    &fakeTicketRepo{store: store},
		TeamRepo:      &fakeTeamRepo{store: store},
		UserRepo:      &fakeUserRepo{store: store},
		StatusRepo:    &fakeStatusRepo{store: store},
		TicketTagRepo: &fakeTicketTagRepo{store: store},
		TagRepo:       &fakeTagRepo{store: store},
		Tree:          tree.NewTicketTree(newMemoryNodeStore()),
		Logger:        zap.NewNop(),
	})
	return env
}

func (e *ticketEnv) create(t *testing.T, title string, parentID *string) *domain.Ticket {
	t.Helper()
	ticket, err := e.service.Create(context.Background(), TicketCreateInput{
		OwnerID:  e.user.ID,
		TeamID:   e.team.ID,
		Title:    title,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	env := newTicketEnv(t)

	first := env.create(t, "first", nil)
	second := env.create(t, "second", nil)

	assert.Equal(t, 1, first.TicketNumber)
	assert.Equal(t, 2, second.TicketNumber)
}

func TestCreateConcurrentNumbersAreUnique(t *testing.T) {
	env := newTicketEnv(t)
	const workers = 20

	numbers := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := env.service.Create(context.Background(), TicketCreateInput{
				OwnerID: env.user.ID,
				TeamID:  env.team.ID,
				Title:   fmt.Sprintf("ticket %d", i),
			})
			if err == nil {
				numbers <- ticket.TicketNumber
			}
		}(i)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool)
	count := 0
	for number := range numbers {
		assert.False(t, seen[number], "duplicate ticket number %d", number)
		seen[number] = true
		count++
	}
	assert.Equal(t, workers, count)
}

func TestCreateWithParentPlacesChild(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	parent := env.create(t, "parent", nil)
	child := env.create(t, "child", &parent.ID)

	children, err := env.service.ChildrenOf(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	isRoot, err := env.service.IsRoot(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, isRoot)
}

func TestAttachSubticketMovesRoot(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	a := env.create(t, "a", nil)
	b := env.create(t, "b", nil)

	require.NoError(t, env.service.AttachSubticket(ctx, env.user.ID, a.ID, b.ID))

	children, err := env.service.ChildrenOf(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, b.ID, children[0].ID)

	isRoot, err := env.service.IsRoot(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, isRoot)

	isRoot, err = env.service.IsRoot(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, isRoot)
}

func TestAttachSubticketRejectsNonRootChild(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	parent := env.create(t, "parent", nil)
	child := env.create(t, "child", &parent.ID)
	other := env.create(t, "other", nil)

	err := env.service.AttachSubticket(ctx, env.user.ID, other.ID, child.ID)
	assert.True(t, apperrors.IsCode(err, "ALREADY_ATTACHED"))
}

func TestAttachSubticketRejectsCycle(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	a := env.create(t, "a", nil)
	b := env.create(t, "b", nil)
	require.NoError(t, env.service.AttachSubticket(ctx, env.user.ID, a.ID, b.ID))

	err := env.service.AttachSubticket(ctx, env.user.ID, b.ID, a.ID)
	assert.True(t, apperrors.IsCode(err, "CYCLE_DETECTED"))
}

func TestAttachSubticketRejectsCrossTeam(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	parent := env.create(t, "parent", nil)

	otherTeam := env.store.addTeam("other")
	foreign, err := env.service.Create(ctx, TicketCreateInput{
		OwnerID: env.user.ID,
		TeamID:  otherTeam.ID,
		Title:   "foreign",
	})
	require.NoError(t, err)

	err = env.service.AttachSubticket(ctx, env.user.ID, parent.ID, foreign.ID)
	assert.True(t, apperrors.IsCode(err, "CROSS_TEAM_VIOLATION"))
}

func TestCreateCrossTeamParentConsumesNoNumber(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	otherTeam := env.store.addTeam("other")
	foreignParent, err := env.service.Create(ctx, TicketCreateInput{
		OwnerID: env.user.ID,
		TeamID:  otherTeam.ID,
		Title:   "foreign parent",
	})
	require.NoError(t, err)

	_, err = env.service.Create(ctx, TicketCreateInput{
		OwnerID:  env.user.ID,
		TeamID:   env.team.ID,
		Title:    "child",
		ParentID: &foreignParent.ID,
	})
	assert.True(t, apperrors.IsCode(err, "CROSS_TEAM_VIOLATION"))

	// Validation happens before the number is reserved.
	next := env.create(t, "next", nil)
	assert.Equal(t, 1, next.TicketNumber)
}

func TestCreateRollbackLeavesNumberGap(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	_, err := env.service.Create(ctx, TicketCreateInput{
		OwnerID: env.user.ID,
		TeamID:  env.team.ID,
		Title:   "tagged",
		TagIDs:  []string{"no-such-tag"},
	})
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	// The failed creation spent number 1; the row it left behind is inactive.
	active, listErr := env.service.ListForTeam(ctx, env.team.ID, 50, 0)
	require.NoError(t, listErr)
	assert.Empty(t, active)

	next := env.create(t, "next", nil)
	assert.Equal(t, 2, next.TicketNumber)
}

func TestCreateRejectsMissingTitle(t *testing.T) {
	env := newTicketEnv(t)

	_, err := env.service.Create(context.Background(), TicketCreateInput{
		OwnerID: env.user.ID,
		TeamID:  env.team.ID,
		Title:   "   ",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateReconcilesTags(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	keep := env.store.addTag(env.team.ID, "keep")
	drop := env.store.addTag(env.team.ID, "drop")
	add := env.store.addTag(env.team.ID, "add")

	ticket, err := env.service.Create(ctx, TicketCreateInput{
		OwnerID: env.user.ID,
		TeamID:  env.team.ID,
		Title:   "tagged",
		TagIDs:  []string{keep.ID, drop.ID},
	})
	require.NoError(t, err)

	before, err := env.service.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	associations, err := env.service.ticketTags.ListByTicket(ctx, before.ID)
	require.NoError(t, err)
	require.Len(t, associations, 2)
	keepRowID := associations[0].ID
	require.Equal(t, keep.ID, associations[0].TagID)

	desired := []string{keep.ID, add.ID}
	_, err = env.service.Update(ctx, env.user.ID, ticket.ID, TicketUpdateInput{TagIDs: &desired})
	require.NoError(t, err)

	tags, err := env.service.TagsOf(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, keep.ID, tags[0].ID)
	assert.Equal(t, add.ID, tags[1].ID)

	// The surviving association keeps its original row.
	associations, err = env.service.ticketTags.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, associations, 2)
	assert.Equal(t, keepRowID, associations[0].ID)
}

func TestUpdateRejectsCrossTeamStatus(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	ticket := env.create(t, "ticket", nil)
	otherTeam := env.store.addTeam("other")
	foreignStatus := env.store.addStatus(otherTeam.ID, "in progress")

	_, err := env.service.Update(ctx, env.user.ID, ticket.ID, TicketUpdateInput{StatusID: &foreignStatus.ID})
	assert.True(t, apperrors.IsCode(err, "CROSS_TEAM_VIOLATION"))
}

func TestListForUserFiltersOwnershipAndAssignment(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	bob := env.store.addUser("bob")

	mine := env.create(t, "mine", nil)
	assigned, err := env.service.Create(ctx, TicketCreateInput{
		OwnerID:        bob.ID,
		TeamID:         env.team.ID,
		Title:          "assigned to alice",
		AssignedUserID: &env.user.ID,
	})
	require.NoError(t, err)
	_, err = env.service.Create(ctx, TicketCreateInput{
		OwnerID: bob.ID,
		TeamID:  env.team.ID,
		Title:   "not mine",
	})
	require.NoError(t, err)

	tickets, err := env.service.ListForUser(ctx, env.team.ID, env.user.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, mine.ID, tickets[0].ID)
	assert.Equal(t, assigned.ID, tickets[1].ID)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	ticket := env.create(t, "ticket", nil)
	require.NoError(t, env.service.Deactivate(ctx, env.user.ID, ticket.ID))
	require.NoError(t, env.service.Deactivate(ctx, env.user.ID, ticket.ID))

	fetched, err := env.service.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, fetched.DeactivatedAt)
}

func TestAncestorsOfReturnsChainFromRoot(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	root := env.create(t, "root", nil)
	mid := env.create(t, "mid", &root.ID)
	leaf := env.create(t, "leaf", &mid.ID)

	ancestors, err := env.service.AncestorsOf(ctx, leaf.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, root.ID, ancestors[0].ID)
	assert.Equal(t, mid.ID, ancestors[1].ID)
}
