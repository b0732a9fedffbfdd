// relations.go — сервис many-to-many связей. Якорная сущность запроса
// должна быть видима субъекту; сама строка связи несёт собственные
// атрибуты и собственную видимость.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// RelationService — операции над одной таблицей связи.
type RelationService struct {
	rels   *repository.RelationRepository
	left   *repository.RecordRepository
	right  *repository.RecordRepository
	logger *slog.Logger
}

// NewRelationService создаёт сервис связи. left и right — репозитории
// сущностей-концов, в порядке дескриптора связи.
func NewRelationService(rels *repository.RelationRepository, left, right *repository.RecordRepository, logger *slog.Logger) *RelationService {
	return &RelationService{
		rels:   rels,
		left:   left,
		right:  right,
		logger: logger.With(slog.String("component", "relation_service")),
	}
}

// anchorRepo возвращает репозиторий якорной сущности.
func (s *RelationService) anchorRepo(anchor repository.Side) *repository.RecordRepository {
	if anchor == repository.SideRight {
		return s.right
	}
	return s.left
}

// checkAnchor проверяет видимость якорной записи для субъекта.
func (s *RelationService) checkAnchor(ctx context.Context, anchor repository.Side, anchorID int64, p model.Principal) error {
	repo := s.anchorRepo(anchor)
	rec := repo.Descriptor().New()
	if err := repo.GetVisible(ctx, anchorID, p, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Add создаёт связь якорной записи с противоположной. Повторная
// связь той же пары → ErrConflict.
func (s *RelationService) Add(ctx context.Context, p model.Principal, anchor repository.Side, anchorID, farID int64, attrs model.RelationAttrs) error {
	if err := s.checkAnchor(ctx, anchor, anchorID, p); err != nil {
		return err
	}

	leftID, rightID := anchorID, farID
	if anchor == repository.SideRight {
		leftID, rightID = farID, anchorID
	}
	if err := s.rels.Add(ctx, leftID, rightID, attrs, p.UserID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: связь уже существует", ErrConflict)
		}
		return err
	}
	return nil
}

// FindAll возвращает видимые связи якорной записи.
func (s *RelationService) FindAll(ctx context.Context, p model.Principal, anchor repository.Side, anchorID int64) ([]model.Relation, error) {
	if err := s.checkAnchor(ctx, anchor, anchorID, p); err != nil {
		return nil, err
	}
	return s.rels.FindAll(ctx, anchor, anchorID, p)
}

// Remove удаляет собственную связь якорной записи. Чужая или
// отсутствующая связь → ErrNotFound.
func (s *RelationService) Remove(ctx context.Context, p model.Principal, anchor repository.Side, anchorID, farID int64) error {
	leftID, rightID := anchorID, farID
	if anchor == repository.SideRight {
		leftID, rightID = farID, anchorID
	}
	if err := s.rels.Remove(ctx, leftID, rightID, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
