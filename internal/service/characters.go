// characters.go — сервис персонажей. Поверх generic-ресурса добавляет
// раскрытие по правилам: характеристики видны не-владельцу только при
// attributes_public, служебные поля (заметки, ссылка на лист,
// is_public) — только владельцу.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// CharacterService — операции над персонажами.
type CharacterService struct {
	res    *ResourceService
	logger *slog.Logger
}

// NewCharacterService создаёт сервис персонажей.
func NewCharacterService(res *ResourceService, logger *slog.Logger) *CharacterService {
	return &CharacterService{
		res:    res,
		logger: logger.With(slog.String("component", "character_service")),
	}
}

// validateCharacter проверяет доменные ограничения записи персонажа.
func validateCharacter(create bool) ValidateFunc {
	return func(rec any) error {
		c := rec.(*model.Character)
		name, set := c.Name.Get()
		if create && !set {
			return errors.New("поле name обязательно")
		}
		if set && name == "" {
			return errors.New("поле name не может быть пустым")
		}
		return nil
	}
}

// Create создаёт персонажа.
func (s *CharacterService) Create(ctx context.Context, p model.Principal, body io.Reader) (*model.Character, error) {
	rec, err := s.res.Create(ctx, p, body, validateCharacter(true))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Character), nil
}

// Get возвращает персонажа с учётом правил раскрытия.
func (s *CharacterService) Get(ctx context.Context, id int64, p model.Principal) (*model.Character, error) {
	rec, err := s.res.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	c := rec.(*model.Character)

	if c.CreatorID.GetOr("") != p.UserID {
		if !c.AttributesPublic.GetOr(false) {
			c.Alignment.Clear()
			c.Str.Clear()
			c.Dex.Clear()
			c.Con.Clear()
			c.Int.Clear()
			c.Wis.Clear()
			c.Cha.Clear()
			c.AttrStatsOther.Clear()
			c.AttributesPublic.Clear()
		}
		c.IsPublic.Clear()
		c.SheetURL.Clear()
		c.Notes.Clear()
	}
	return c, nil
}

// List возвращает summary видимых персонажей.
func (s *CharacterService) List(ctx context.Context, p model.Principal, q repository.ListQuery) ([]*model.Character, error) {
	if q.OrderBy == "" {
		q.OrderBy = "name"
	}
	recs, err := s.res.List(ctx, p, q)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Character, len(recs))
	for i, rec := range recs {
		out[i] = rec.(*model.Character)
	}
	return out, nil
}

// Patch применяет разреженное обновление собственного персонажа.
func (s *CharacterService) Patch(ctx context.Context, id int64, p model.Principal, body io.Reader) (*model.Character, error) {
	rec, err := s.res.Patch(ctx, id, p, body, validateCharacter(false))
	if err != nil {
		return nil, err
	}
	return rec.(*model.Character), nil
}
