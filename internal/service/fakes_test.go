package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/repository"
	"github.com/slugbotics/sluggo/internal/tree"
	"github.com/slugbotics/sluggo/pkg/apperrors"
)

// memStore backs the in-memory repository fakes. A single mutex keeps the
// fakes safe under the concurrent creation tests.
type memStore struct {
	mu         sync.Mutex
	teams      map[string]*domain.Team
	users      map[string]*domain.User
	tickets    map[string]*domain.Ticket
	statuses   map[string]*domain.TicketStatus
	tags       map[string]*domain.Tag
	ticketTags []domain.TicketTag
	clock      int64
}

func newMemStore() *memStore {
	return &memStore{
		teams:    make(map[string]*domain.Team),
		users:    make(map[string]*domain.User),
		tickets:  make(map[string]*domain.Ticket),
		statuses: make(map[string]*domain.TicketStatus),
		tags:     make(map[string]*domain.Tag),
	}
}

// tick returns a strictly increasing timestamp so insertion order is
// observable through CreatedAt.
func (s *memStore) tick() time.Time {
	s.clock++
	return time.Unix(0, s.clock)
}

func (s *memStore) addUser(username string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{ID: uuid.NewString(), Username: username, Email: username + "@example.com"}
	s.users[user.ID] = user
	return user
}

func (s *memStore) addTeam(name string) *domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	team := &domain.Team{ID: uuid.NewString(), Name: name, CreatedAt: now, ActivatedAt: &now}
	s.teams[team.ID] = team
	return team
}

func (s *memStore) addTag(teamID, title string) *domain.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag := &domain.Tag{ID: uuid.NewString(), TeamID: teamID, Title: title, CreatedAt: s.tick()}
	s.tags[tag.ID] = tag
	return tag
}

func (s *memStore) addStatus(teamID, title string) *domain.TicketStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := &domain.TicketStatus{ID: uuid.NewString(), TeamID: teamID, Title: title, CreatedAt: s.tick()}
	s.statuses[status.ID] = status
	return status
}

type fakeTeamRepo struct{ store *memStore }

func (r *fakeTeamRepo) Create(_ context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team.ID = uuid.NewString()
	team.CreatedAt = r.store.tick()
	copied := *team
	r.store.teams[team.ID] = &copied
	return nil
}

func (r *fakeTeamRepo) Update(_ context.Context, team *domain.Team) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.teams[team.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name = team.Name
	existing.Description = team.Description
	existing.ActivatedAt = team.ActivatedAt
	return nil
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) ListActive(_ context.Context) ([]domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Team
	for _, team := range r.store.teams {
		if team.DeactivatedAt == nil {
			out = append(out, *team)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTeamRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok || team.DeactivatedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.store.tick()
	team.DeactivatedAt = &now
	return nil
}

func (r *fakeTeamRepo) ReserveTicketNumber(_ context.Context, teamID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[teamID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	team.TicketHead++
	return team.TicketHead, nil
}

type fakeUserRepo struct{ store *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.ID = uuid.NewString()
	copied := *user
	r.store.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeTicketRepo struct{ store *memStore }

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket.ID = uuid.NewString()
	now := r.store.tick()
	ticket.CreatedAt = now
	ticket.ActivatedAt = &now
	copied := *ticket
	r.store.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.store.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		if ticket, ok := r.store.tickets[id]; ok {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListByTeam(_ context.Context, teamID string, limit, offset int) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.store.tickets {
		if ticket.TeamID == teamID && ticket.DeactivatedAt == nil {
			out = append(out, *ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber < out[j].TicketNumber })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeTicketRepo) ListForUser(_ context.Context, teamID, userID string) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.store.tickets {
		if ticket.TeamID != teamID || ticket.DeactivatedAt != nil {
			continue
		}
		assigned := ticket.AssignedUserID != nil && *ticket.AssignedUserID == userID
		if ticket.OwnerID == userID || assigned {
			out = append(out, *ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketNumber < out[j].TicketNumber })
	return out, nil
}

func (r *fakeTicketRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok || ticket.DeactivatedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.store.tick()
	ticket.DeactivatedAt = &now
	return nil
}

type fakeStatusRepo struct{ store *memStore }

func (r *fakeStatusRepo) Create(_ context.Context, status *domain.TicketStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	status.ID = uuid.NewString()
	status.CreatedAt = r.store.tick()
	copied := *status
	r.store.statuses[status.ID] = &copied
	return nil
}

func (r *fakeStatusRepo) Update(_ context.Context, status *domain.TicketStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.statuses[status.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Title = status.Title
	return nil
}

func (r *fakeStatusRepo) GetByID(_ context.Context, id string) (*domain.TicketStatus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	status, ok := r.store.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *status
	return &copied, nil
}

func (r *fakeStatusRepo) ListByTeam(_ context.Context, teamID string) ([]domain.TicketStatus, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.TicketStatus
	for _, status := range r.store.statuses {
		if status.TeamID == teamID && status.DeactivatedAt == nil {
			out = append(out, *status)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeStatusRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	status, ok := r.store.statuses[id]
	if !ok || status.DeactivatedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.store.tick()
	status.DeactivatedAt = &now
	return nil
}

type fakeTagRepo struct{ store *memStore }

func (r *fakeTagRepo) Create(_ context.Context, tag *domain.Tag) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tag.ID = uuid.NewString()
	tag.CreatedAt = r.store.tick()
	copied := *tag
	r.store.tags[tag.ID] = &copied
	return nil
}

func (r *fakeTagRepo) GetByID(_ context.Context, id string) (*domain.Tag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tag, ok := r.store.tags[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tag
	return &copied, nil
}

func (r *fakeTagRepo) ListByTeam(_ context.Context, teamID string) ([]domain.Tag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Tag
	for _, tag := range r.store.tags {
		if tag.TeamID == teamID && tag.DeactivatedAt == nil {
			out = append(out, *tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *fakeTagRepo) ListByIDs(_ context.Context, teamID string, ids []string) ([]domain.Tag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Tag
	for _, id := range ids {
		tag, ok := r.store.tags[id]
		if ok && tag.TeamID == teamID && tag.DeactivatedAt == nil {
			out = append(out, *tag)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tag, ok := r.store.tags[id]
	if !ok || tag.DeactivatedAt != nil {
		return pgx.ErrNoRows
	}
	now := r.store.tick()
	tag.DeactivatedAt = &now
	return nil
}

type fakeTicketTagRepo struct{ store *memStore }

func (r *fakeTicketTagRepo) validate(teamID string, ids []string) error {
	missing := make([]string, 0)
	for _, id := range ids {
		tag, ok := r.store.tags[id]
		if !ok || tag.TeamID != teamID || tag.DeactivatedAt != nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewNotFound("tag", map[string]any{"tag_ids": missing})
	}
	return nil
}

func (r *fakeTicketTagRepo) attach(ticket *domain.Ticket, ids []string) []string {
	current := make(map[string]bool)
	for _, row := range r.store.ticketTags {
		if row.TicketID == ticket.ID {
			current[row.TagID] = true
		}
	}
	attached := make([]string, 0, len(ids))
	for _, id := range ids {
		if current[id] {
			continue
		}
		current[id] = true
		r.store.ticketTags = append(r.store.ticketTags, domain.TicketTag{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			TagID:     id,
			TeamID:    ticket.TeamID,
			CreatedAt: r.store.tick(),
		})
		attached = append(attached, id)
	}
	return attached
}

func (r *fakeTicketTagRepo) AttachAll(_ context.Context, ticket *domain.Ticket, tagIDs []string) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tagIDs = dedupeIDs(tagIDs)
	if err := r.validate(ticket.TeamID, tagIDs); err != nil {
		return nil, err
	}
	return r.attach(ticket, tagIDs), nil
}

func (r *fakeTicketTagRepo) Reconcile(_ context.Context, ticket *domain.Ticket, desired []string) (*repository.TagDiff, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	desired = dedupeIDs(desired)

	wanted := make(map[string]bool, len(desired))
	for _, id := range desired {
		wanted[id] = true
	}
	current := make(map[string]bool)
	for _, row := range r.store.ticketTags {
		if row.TicketID == ticket.ID {
			current[row.TagID] = true
		}
	}

	toAttach := make([]string, 0)
	for _, id := range desired {
		if !current[id] {
			toAttach = append(toAttach, id)
		}
	}
	toDetach := make([]string, 0)
	for id := range current {
		if !wanted[id] {
			toDetach = append(toDetach, id)
		}
	}

	if err := r.validate(ticket.TeamID, toAttach); err != nil {
		return nil, err
	}

	if len(toDetach) > 0 {
		detach := make(map[string]bool, len(toDetach))
		for _, id := range toDetach {
			detach[id] = true
		}
		kept := r.store.ticketTags[:0]
		for _, row := range r.store.ticketTags {
			if row.TicketID == ticket.ID && detach[row.TagID] {
				continue
			}
			kept = append(kept, row)
		}
		r.store.ticketTags = kept
	}

	attached := r.attach(ticket, toAttach)
	return &repository.TagDiff{Attached: attached, Detached: toDetach}, nil
}

func (r *fakeTicketTagRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketTag, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.TicketTag
	for _, row := range r.store.ticketTags {
		if row.TicketID == ticketID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// memoryNodeStore keeps tree nodes in a map keyed by ticket id.
type memoryNodeStore struct {
	mu    sync.Mutex
	nodes map[string]*tree.Node
}

func newMemoryNodeStore() *memoryNodeStore {
	return &memoryNodeStore{nodes: make(map[string]*tree.Node)}
}

func (s *memoryNodeStore) Insert(_ context.Context, node *tree.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *node
	s.nodes[node.TicketID] = &copied
	return nil
}

func (s *memoryNodeStore) GetByTicket(_ context.Context, ticketID string) (*tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.nodes[ticketID]
	if !ok {
		return nil, nil
	}
	copied := *node
	return &copied, nil
}

func (s *memoryNodeStore) LastSiblingPath(_ context.Context, teamID, pathPrefix string, depth int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	last := ""
	for _, node := range s.nodes {
		if node.TeamID != teamID || node.Depth != depth || !strings.HasPrefix(node.Path, pathPrefix) {
			continue
		}
		if node.Path > last {
			last = node.Path
		}
	}
	return last, nil
}

func (s *memoryNodeStore) ListChildren(_ context.Context, teamID, pathPrefix string, depth int) ([]tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tree.Node
	for _, node := range s.nodes {
		if node.TeamID == teamID && node.Depth == depth && strings.HasPrefix(node.Path, pathPrefix) {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *memoryNodeStore) ListByPaths(_ context.Context, teamID string, paths []string) ([]tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(paths))
	for _, path := range paths {
		wanted[path] = true
	}
	var out []tree.Node
	for _, node := range s.nodes {
		if node.TeamID == teamID && wanted[node.Path] {
			out = append(out, *node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out, nil
}

func (s *memoryNodeStore) MaxSubtreeDepth(_ context.Context, teamID, pathPrefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, node := range s.nodes {
		if node.TeamID == teamID && strings.HasPrefix(node.Path, pathPrefix) && node.Depth > max {
			max = node.Depth
		}
	}
	return max, nil
}

func (s *memoryNodeStore) MoveSubtree(_ context.Context, teamID, oldPrefix, newPrefix string, depthDelta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, node := range s.nodes {
		if node.TeamID == teamID && strings.HasPrefix(node.Path, oldPrefix) {
			node.Path = newPrefix + node.Path[len(oldPrefix):]
			node.Depth += depthDelta
		}
	}
	return nil
}
