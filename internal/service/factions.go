// factions.go — сервис фракций.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// FactionService — операции над фракциями.
type FactionService struct {
	res    *ResourceService
	logger *slog.Logger
}

// NewFactionService создаёт сервис фракций.
func NewFactionService(res *ResourceService, logger *slog.Logger) *FactionService {
	return &FactionService{
		res:    res,
		logger: logger.With(slog.String("component", "faction_service")),
	}
}

// validateFaction проверяет доменные ограничения записи фракции.
func validateFaction(create bool) ValidateFunc {
	return func(rec any) error {
		f := rec.(*model.Faction)
		name, set := f.Name.Get()
		if create && !set {
			return errors.New("поле name обязательно")
		}
		if set && name == "" {
			return errors.New("поле name не может быть пустым")
		}
		return nil
	}
}

// Create создаёт фракцию.
func (s *FactionService) Create(ctx context.Context, p model.Principal, body io.Reader) (*model.Faction, error) {
	rec, err := s.res.Create(ctx, p, body, validateFaction(true))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Faction), nil
}

// Get возвращает фракцию с подгруженным описанием.
func (s *FactionService) Get(ctx context.Context, id int64, p model.Principal) (*model.Faction, error) {
	rec, err := s.res.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return rec.(*model.Faction), nil
}

// List возвращает summary видимых фракций.
func (s *FactionService) List(ctx context.Context, p model.Principal, q repository.ListQuery) ([]*model.Faction, error) {
	if q.OrderBy == "" {
		q.OrderBy = "name"
	}
	recs, err := s.res.List(ctx, p, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Faction, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*model.Faction)
	}
	return out, nil
}

// Patch применяет разреженное обновление собственной фракции.
func (s *FactionService) Patch(ctx context.Context, id int64, p model.Principal, body io.Reader) (*model.Faction, error) {
	rec, err := s.res.Patch(ctx, id, p, body, validateFaction(false))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Faction), nil
}
