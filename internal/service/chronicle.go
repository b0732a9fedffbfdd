// chronicle.go — сервис хроники кампании. Создание записи атомарно
// связывает её с родительской сущностью (таблица <тип>_chronicle)
// и назначает игровое время по умолчанию: последний tick кампании
// плюс шаг, для пустой хроники — стартовый tick кампании.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/grimwald/lorelog/internal/content"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// tickStep — шаг игрового времени между записями по умолчанию.
const tickStep = 1000

// ChronicleService — операции над записями хроники.
type ChronicleService struct {
	res     *ResourceService
	entries *repository.ChronicleRepository
	users   *repository.UserRepository
	tx      *repository.TxRunner
	content *content.Store
	logger  *slog.Logger
}

// NewChronicleService создаёт сервис хроники.
func NewChronicleService(
	res *ResourceService,
	entries *repository.ChronicleRepository,
	users *repository.UserRepository,
	tx *repository.TxRunner,
	store *content.Store,
	logger *slog.Logger,
) *ChronicleService {
	return &ChronicleService{
		res:     res,
		entries: entries,
		users:   users,
		tx:      tx,
		content: store,
		logger:  logger.With(slog.String("component", "chronicle_service")),
	}
}

// Create создаёт запись хроники. Родительская сущность должна
// принадлежать субъекту; строка записи и строка связи вставляются
// в одной транзакции.
func (s *ChronicleService) Create(ctx context.Context, p model.Principal, body io.Reader) (*model.ChronicleEntry, error) {
	desc := s.res.Descriptor()
	rec := desc.New()
	if err := desc.FromPayload(rec, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	entry := rec.(*model.ChronicleEntry)
	if err := desc.Stamp(entry, p.UserID, p.CampaignID); err != nil {
		return nil, err
	}

	if entry.Title.GetOr("") == "" {
		return nil, fmt.Errorf("%w: поле title обязательно", ErrValidation)
	}
	relType := entry.RelationType.GetOr("")
	if !model.ChronicleRelationTypes[relType] {
		return nil, fmt.Errorf("%w: недопустимый тип сущности хроники: %q", ErrValidation, relType)
	}
	relID, ok := entry.RelationID.Get()
	if !ok {
		return nil, fmt.Errorf("%w: поле relation_id обязательно", ErrValidation)
	}
	text := entry.RichDescription.GetOr("")
	if text == "" {
		return nil, fmt.Errorf("%w: поле rich_description обязательно", ErrValidation)
	}

	// Запись хроники привязывается только к собственной сущности.
	if err := s.entries.ParentOwned(ctx, relType, relID, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !entry.Tick.IsSet() {
		tick, err := s.defaultTick(ctx, p.CampaignID)
		if err != nil {
			return nil, err
		}
		entry.Tick.Set(tick)
	}
	entry.ID.Set(uuid.NewString())

	ref := s.content.NewID()
	if err := s.content.Write(ref, text); err != nil {
		return nil, err
	}
	entry.ExternalFileName.Set(ref)

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := desc.Insert(ctx, tx, entry); err != nil {
			return err
		}
		return s.entries.WithTx(tx).InsertLink(ctx, relType, relID, entry.ID.GetOr(""))
	})
	if err != nil {
		if derr := s.content.Delete(ref); derr != nil {
			s.logger.Warn("Не удалось удалить файл контента после сбоя транзакции",
				slog.String("ref", ref),
				slog.String("error", derr.Error()),
			)
		}
		return nil, err
	}
	return entry, nil
}

// defaultTick вычисляет игровое время для записи без явного tick.
func (s *ChronicleService) defaultTick(ctx context.Context, campaignID int64) (int64, error) {
	last, found, err := s.entries.LastTick(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if found {
		return last + tickStep, nil
	}
	c, err := s.users.CampaignByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return c.StartTick, nil
}

// Get возвращает запись хроники с контентом и id родительской сущности.
func (s *ChronicleService) Get(ctx context.Context, id string, p model.Principal) (*model.ChronicleEntry, error) {
	rec, err := s.res.Get(ctx, id, p)
	if err != nil {
		return nil, err
	}
	entry := rec.(*model.ChronicleEntry)

	relType := entry.RelationType.GetOr("")
	if relType != "" {
		relID, err := s.entries.RelationID(ctx, relType, id)
		switch {
		case err == nil:
			entry.RelationID.Set(relID)
		case errors.Is(err, repository.ErrNotFound):
			// Запись без строки связи — дефект данных, не ошибка чтения.
			s.logger.Warn("Запись хроники без строки связи",
				slog.String("id", id),
				slog.String("relation_type", relType),
			)
		default:
			return nil, err
		}
	}
	return entry, nil
}

// List возвращает summary видимых записей хроники в обратном порядке
// игрового времени. relType и relationID сужают выборку по родителю.
func (s *ChronicleService) List(ctx context.Context, p model.Principal, relType string, relationID int64) ([]*model.ChronicleEntry, error) {
	if relType != "" && !model.ChronicleRelationTypes[relType] {
		return nil, fmt.Errorf("%w: недопустимый тип сущности хроники: %q", ErrValidation, relType)
	}
	if relationID != 0 && relType == "" {
		return nil, fmt.Errorf("%w: relation_id требует relation_type", ErrValidation)
	}
	return s.entries.ListVisible(ctx, p, relType, relationID)
}

// Patch применяет разреженное обновление собственной записи хроники.
// Родительская связь неизменна: перенос записи к другой сущности
// не поддерживается.
func (s *ChronicleService) Patch(ctx context.Context, id string, p model.Principal, body io.Reader) (*model.ChronicleEntry, error) {
	_, err := s.res.Patch(ctx, id, p, body, func(rec any) error {
		e := rec.(*model.ChronicleEntry)
		if e.RelationType.IsSet() || e.RelationID.IsSet() {
			return errors.New("тип и родитель записи хроники не меняются")
		}
		if title, set := e.Title.Get(); set && title == "" {
			return errors.New("поле title не может быть пустым")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id, p)
}
