// places.go — сервис мест. Тип места ограничен закрытым перечнем,
// домен кампании через API не создаётся и не назначается.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// PlaceService — операции над местами.
type PlaceService struct {
	res    *ResourceService
	logger *slog.Logger
}

// NewPlaceService создаёт сервис мест.
func NewPlaceService(res *ResourceService, logger *slog.Logger) *PlaceService {
	return &PlaceService{
		res:    res,
		logger: logger.With(slog.String("component", "place_service")),
	}
}

// validatePlace проверяет доменные ограничения записи места.
func validatePlace(create bool) ValidateFunc {
	return func(rec any) error {
		pl := rec.(*model.Place)
		name, set := pl.Name.Get()
		if create && !set {
			return errors.New("поле name обязательно")
		}
		if set && name == "" {
			return errors.New("поле name не может быть пустым")
		}
		typ, set := pl.Type.Get()
		if create && !set {
			return errors.New("поле type обязательно")
		}
		if set {
			if !model.ValidPlaceType(typ) {
				return fmt.Errorf("недопустимый тип места: %s", typ)
			}
			if typ == model.PlaceTypeDomain {
				return errors.New("домен кампании создаётся только при её заведении")
			}
		}
		return nil
	}
}

// Create создаёт место.
func (s *PlaceService) Create(ctx context.Context, p model.Principal, body io.Reader) (*model.Place, error) {
	rec, err := s.res.Create(ctx, p, body, validatePlace(true))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Place), nil
}

// Get возвращает место с подгруженным описанием.
func (s *PlaceService) Get(ctx context.Context, id int64, p model.Principal) (*model.Place, error) {
	rec, err := s.res.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Place), nil
}

// List возвращает summary видимых мест; typ сужает выборку по типу.
func (s *PlaceService) List(ctx context.Context, p model.Principal, typ string) ([]*model.Place, error) {
	q := repository.ListQuery{OrderBy: "name"}
	if typ != "" {
		if !model.ValidPlaceType(typ) {
			return nil, fmt.Errorf("%w: недопустимый тип места: %s", ErrValidation, typ)
		}
		q.Filters = map[string]any{"type": typ}
	}
	recs, err := s.res.List(ctx, p, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Place, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*model.Place)
	}
	return out, nil
}

// Patch применяет разреженное обновление собственного места.
func (s *PlaceService) Patch(ctx context.Context, id int64, p model.Principal, body io.Reader) (*model.Place, error) {
	rec, err := s.res.Patch(ctx, id, p, body, validatePlace(false))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Place), nil
}
