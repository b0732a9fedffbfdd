// things.go — сервис предметов.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// ThingService — операции над предметами.
type ThingService struct {
	res    *ResourceService
	logger *slog.Logger
}

// NewThingService создаёт сервис предметов.
func NewThingService(res *ResourceService, logger *slog.Logger) *ThingService {
	return &ThingService{
		res:    res,
		logger: logger.With(slog.String("component", "thing_service")),
	}
}

// validateThing проверяет доменные ограничения записи предмета.
func validateThing(create bool) ValidateFunc {
	return func(rec any) error {
		t := rec.(*model.Thing)
		name, set := t.Name.Get()
		if create && !set {
			return errors.New("поле name обязательно")
		}
		if set && name == "" {
			return errors.New("поле name не может быть пустым")
		}
		if w, set := t.Weight.Get(); set && w < 0 {
			return errors.New("вес не может быть отрицательным")
		}
		if pr, set := t.Price.Get(); set && pr < 0 {
			return errors.New("цена не может быть отрицательной")
		}
		return nil
	}
}

// Create создаёт предмет.
func (s *ThingService) Create(ctx context.Context, p model.Principal, body io.Reader) (*model.Thing, error) {
	rec, err := s.res.Create(ctx, p, body, validateThing(true))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Thing), nil
}

// Get возвращает предмет с подгруженным описанием.
func (s *ThingService) Get(ctx context.Context, id int64, p model.Principal) (*model.Thing, error) {
	rec, err := s.res.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Thing), nil
}

// List возвращает summary видимых предметов.
func (s *ThingService) List(ctx context.Context, p model.Principal, q repository.ListQuery) ([]*model.Thing, error) {
	if q.OrderBy == "" {
		q.OrderBy = "name"
	}
	recs, err := s.res.List(ctx, p, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Thing, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*model.Thing)
	}
	return out, nil
}

// Patch применяет разреженное обновление собственного предмета.
func (s *ThingService) Patch(ctx context.Context, id int64, p model.Principal, body io.Reader) (*model.Thing, error) {
	rec, err := s.res.Patch(ctx, id, p, body, validateThing(false))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Thing), nil
}
