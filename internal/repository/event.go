package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cahcet/eloquence-api/internal/domain"
	"github.com/cahcet/eloquence-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	FindBySlug(ctx context.Context, slug string) (dao.Event, error)
	EnsureSlugs(ctx context.Context, slugs []string) error
}

type EventIDCache interface {
	Get(ctx context.Context, slug string) (uuid.UUID, bool, error)
	Set(ctx context.Context, slug string, id uuid.UUID) error
}

type EventRepository struct {
	dao   EventDAO
	cache EventIDCache
}

// NewEventRepository takes an optional cache; pass nil to always hit the database.
func NewEventRepository(dao EventDAO, cache EventIDCache) *EventRepository {
	return &EventRepository{
		dao:   dao,
		cache: cache,
	}
}

func (r *EventRepository) FindBySlug(ctx context.Context, slug string) (domain.EventRecord, error) {
	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, slug)
		if err != nil {
			zap.L().Warn("event id cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		if ok {
			return domain.EventRecord{ID: id, Title: slug}, nil
		}
	}

	found, err := r.dao.FindBySlug(ctx, slug)
	if err != nil {
		return domain.EventRecord{}, fmt.Errorf("r.dao.FindBySlug -> %w", err)
	}

	if r.cache != nil {
		if err = r.cache.Set(ctx, slug, found.ID); err != nil {
			zap.L().Warn("event id cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	return domain.EventRecord{ID: found.ID, Title: found.Title}, nil
}

func (r *EventRepository) EnsureEvents(ctx context.Context, events []domain.Event) error {
	slugs := make([]string, 0, len(events))
	for _, e := range events {
		slugs = append(slugs, e.Slug)
	}

	if err := r.dao.EnsureSlugs(ctx, slugs); err != nil {
		return fmt.Errorf("r.dao.EnsureSlugs -> %w", err)
	}

	return nil
}
