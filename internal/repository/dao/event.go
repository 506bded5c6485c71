package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEventNotFound = errors.New("event not found")

// Event is the lookup row; Title holds the catalogue slug.
type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (Event) TableName() string {
	return "events"
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) FindBySlug(ctx context.Context, slug string) (Event, error) {
	var e Event
	err := conn(ctx, d.db).Where("title = ?", slug).Take(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}

	return e, nil
}

// EnsureSlugs inserts a lookup row for every slug not yet present.
func (d *EventDAO) EnsureSlugs(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}

	rows := make([]Event, 0, len(slugs))
	for _, s := range slugs {
		rows = append(rows, Event{Title: s})
	}

	return conn(ctx, d.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "title"}}, DoNothing: true}).
		Create(&rows).Error
}
