package logs

import (
	"context"
	"errors"
	"time"

	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type EventInput struct {
	Level       *string
	Description *string
	Details     *string
	Datetime    *time.Time
	SetDatetime bool
	Archived    *bool
	AgentID     *uint
	SetAgent    bool
	UserID      *uint
	SetUser     bool
}

type EventService struct {
	db        *gorm.DB
	eventRepo EventRepository
}

func (s *EventService) GetEventByID(ctx context.Context, eventID uint) (*model.Event, error) {
	event, err := s.eventRepo.First(ctx, byID(eventID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	return event, err
}

func (s *EventService) ListEvents(ctx context.Context, scopes ...Scope) ([]*model.Event, error) {
	return s.eventRepo.Find(ctx, scopes...)
}

// ValidateEvent checks that the referenced rows exist.
func (s *EventService) ValidateEvent(ctx context.Context, in EventInput) (validation.Errors, error) {
	errs := validation.Errors{}
	if in.SetAgent {
		if err := checkRelation(ctx, s.db, errs, "agent", &model.Agent{}, in.AgentID); err != nil {
			return nil, err
		}
	}
	if in.SetUser {
		if err := checkRelation(ctx, s.db, errs, "user", &model.User{}, in.UserID); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

func (s *EventService) validate(ctx context.Context, in EventInput) error {
	errs, err := s.ValidateEvent(ctx, in)
	if err != nil {
		return err
	}
	return errs.Err()
}

func (s *EventService) CreateEvent(ctx context.Context, in EventInput) (*model.Event, error) {
	if in.Level == nil || in.Description == nil || in.Details == nil {
		return nil, errors.New("create event: level, description and details are required")
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	event := &model.Event{
		Level:       *in.Level,
		Description: *in.Description,
		Details:     *in.Details,
		Datetime:    in.Datetime,
		AgentID:     in.AgentID,
		UserID:      in.UserID,
	}
	if in.Archived != nil {
		event.Archived = *in.Archived
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return s.GetEventByID(ctx, event.ID)
}

func (s *EventService) UpdateEvent(ctx context.Context, event *model.Event, in EventInput) (*model.Event, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	columns := make(map[string]interface{})
	if in.Level != nil {
		columns["level"] = *in.Level
	}
	if in.Description != nil {
		columns["description"] = *in.Description
	}
	if in.Details != nil {
		columns["details"] = *in.Details
	}
	if in.SetDatetime {
		columns["datetime"] = in.Datetime
	}
	if in.Archived != nil {
		columns["archived"] = *in.Archived
	}
	if in.SetAgent {
		columns["agent_id"] = in.AgentID
	}
	if in.SetUser {
		columns["user_id"] = in.UserID
	}
	if err := s.eventRepo.Updates(ctx, event, columns); err != nil {
		return nil, err
	}
	return s.GetEventByID(ctx, event.ID)
}

func (s *EventService) DeleteEvent(ctx context.Context, eventID uint) error {
	err := s.eventRepo.Delete(ctx, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEventNotFound
	}
	return err
}

// ArchiveOlderThan archives events whose datetime is older than age.
func (s *EventService) ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return s.eventRepo.ArchiveBefore(ctx, time.Now().UTC().Add(-age))
}

func NewEventService(db *gorm.DB, eventRepo EventRepository) *EventService {
	return &EventService{
		db:        db,
		eventRepo: eventRepo,
	}
}
