package logs

import (
	"context"
	"time"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type EventRepository interface {
	First(ctx context.Context, scopes ...Scope) (*model.Event, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	Updates(ctx context.Context, event *model.Event, columns map[string]interface{}) error
	Delete(ctx context.Context, eventID uint) error
	ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

// joinRelations loads the agent and collecting user in the same query so
// filters can reference the "Agent" table.
func joinRelations(db *gorm.DB) *gorm.DB {
	return db.Joins("Agent").Joins("User")
}

func (r *eventRepository) First(ctx context.Context, scopes ...Scope) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).Scopes(joinRelations).Scopes(scopes...).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Find(ctx context.Context, scopes ...Scope) ([]*model.Event, error) {
	var events []*model.Event
	err := r.db.WithContext(ctx).Model(&model.Event{}).Scopes(joinRelations).Scopes(scopes...).Find(&events).Error
	return events, err
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Omit("Agent", "User").Create(event).Error
}

func (r *eventRepository) Updates(ctx context.Context, event *model.Event, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(event).Omit("Agent", "User").Updates(columns).Error
}

func (r *eventRepository) Delete(ctx context.Context, eventID uint) error {
	ret := r.db.WithContext(ctx).Delete(&model.Event{}, eventID)
	if ret.Error != nil {
		return ret.Error
	}
	if ret.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ArchiveBefore marks every unarchived event older than cutoff as archived.
func (r *eventRepository) ArchiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Event{}).
		Where("archived = ? AND datetime < ?", false, cutoff).
		Update("archived", true)
	return ret.RowsAffected, ret.Error
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db}
}
