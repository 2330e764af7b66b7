package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/slugbotics/sluggo/internal/domain"
	"github.com/slugbotics/sluggo/internal/events"
	"github.com/slugbotics/sluggo/internal/persistence"
	"github.com/slugbotics/sluggo/internal/repository"
)

// feedMaxEntries caps the cached per-team activity feed.
const feedMaxEntries = 100

// ActivityService turns dispatcher events into the persisted team activity
// log and a Redis-cached recent feed.
type ActivityService struct {
	dispatcher events.Dispatcher
	repo       repository.EventRepository
	redis      *persistence.Redis
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, repo repository.EventRepository, redis *persistence.Redis, logger *zap.Logger) *ActivityService {
	return &ActivityService{dispatcher: dispatcher, repo: repo, redis: redis, logger: logger}
}

// RegisterHandlers subscribes to every event type worth logging.
func (s *ActivityService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTeamCreated,
		events.EventMemberJoined,
		events.EventMemberUpdated,
		events.EventTicketCreated,
		events.EventTicketUpdated,
		events.EventTicketDeactivated,
		events.EventSubticketAttached,
		events.EventTagAttached,
		events.EventTagDetached,
		events.EventCommentAdded,
	} {
		s.dispatcher.Subscribe(eventType, s.record)
	}
}

func (s *ActivityService) record(ctx context.Context, event events.Event) error {
	objectID := event.ObjectID
	entry := &domain.Event{
		TeamID:      event.TeamID,
		UserID:      event.ActorUserID,
		EventType:   string(event.Type),
		Description: event.Description,
	}
	if objectID != "" {
		entry.ObjectID = &objectID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to persist activity event",
			zap.String("type", string(event.Type)), zap.Error(err))
		return err
	}
	s.cache(ctx, event)
	return nil
}

// cache pushes the event onto the team's recent-activity list. Cache
// failures are logged, never propagated.
func (s *ActivityService) cache(ctx context.Context, event events.Event) {
	if !s.redis.Available() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode activity event", zap.Error(err))
		return
	}
	if err := s.redis.PushCapped(ctx, feedKey(event.TeamID), payload, feedMaxEntries); err != nil {
		s.logger.Warn("failed to cache activity event", zap.Error(err))
	}
}

// RecentFeed returns the cached recent events for a team, newest first.
// Empty (not an error) when the cache is unavailable.
func (s *ActivityService) RecentFeed(ctx context.Context, teamID string, limit int) ([]events.Event, error) {
	if !s.redis.Available() {
		return nil, nil
	}
	if limit <= 0 || limit > feedMaxEntries {
		limit = feedMaxEntries
	}
	raw, err := s.redis.ListRange(ctx, feedKey(teamID), int64(limit))
	if err != nil {
		s.logger.Warn("failed to read activity feed", zap.Error(err))
		return nil, nil
	}
	feed := make([]events.Event, 0, len(raw))
	for _, item := range raw {
		var event events.Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			continue
		}
		feed = append(feed, event)
	}
	return feed, nil
}

// History returns the persisted activity log for a team, newest first.
func (s *ActivityService) History(ctx context.Context, teamID string, limit, offset int) ([]domain.Event, error) {
	return s.repo.ListByTeam(ctx, teamID, limit, offset)
}

func feedKey(teamID string) string {
	return "activity:" + teamID
}
