// Пакет service — бизнес-логика Lore Log.
// resource.go — generic-сервис ресурса: создание, чтение, списки и
// разреженный PATCH любой сущности, описанной дескриптором, плюс
// side-канал внешнего контента. Типизированные сервисы сущностей —
// тонкие обёртки над ним.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/grimwald/lorelog/internal/content"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
	"github.com/grimwald/lorelog/internal/schema"
)

// ValidateFunc — доменная валидация записи перед вставкой/обновлением.
// Возвращаемая ошибка оборачивается в ErrValidation вызывающим кодом.
type ValidateFunc func(rec any) error

// ResourceService — generic-операции над одним типом сущности.
type ResourceService struct {
	desc    *schema.Descriptor
	records *repository.RecordRepository
	content *content.Store
	logger  *slog.Logger
}

// NewResourceService создаёт generic-сервис ресурса.
func NewResourceService(records *repository.RecordRepository, store *content.Store, logger *slog.Logger) *ResourceService {
	desc := records.Descriptor()
	return &ResourceService{
		desc:    desc,
		records: records,
		content: store,
		logger:  logger.With(slog.String("component", desc.Table()+"_service")),
	}
}

// Create создаёт запись из JSON-тела запроса. Поля владения
// штампуются из субъекта, payload их не контролирует. Внешний контент
// пишется на диск до вставки строки; при ошибке вставки файл
// удаляется компенсирующе.
func (s *ResourceService) Create(ctx context.Context, p model.Principal, body io.Reader, validate ValidateFunc) (any, error) {
	rec := s.desc.New()
	if err := s.desc.FromPayload(rec, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.desc.Stamp(rec, p.UserID, p.CampaignID); err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if s.desc.IDStrategy() == schema.ApplicationGenerated {
		if _, ok, _ := s.desc.PK(rec); !ok {
			if err := s.desc.SetPK(rec, uuid.NewString()); err != nil {
				return nil, err
			}
		}
	}

	// Файл контента появляется раньше строки: осиротевший файл при
	// сбое вставки безопаснее строки с битой ссылкой.
	var ref string
	if s.desc.HasExternalContent() {
		text, ok, err := s.desc.Content(rec)
		if err != nil {
			return nil, err
		}
		if ok && text != "" {
			ref = s.content.NewID()
			if err := s.content.Write(ref, text); err != nil {
				return nil, err
			}
			if err := s.desc.SetRef(rec, ref); err != nil {
				return nil, err
			}
		}
	}

	if err := s.records.Insert(ctx, rec); err != nil {
		if ref != "" {
			if derr := s.content.Delete(ref); derr != nil {
				s.logger.Warn("Не удалось удалить файл контента после сбоя вставки",
					slog.String("ref", ref),
					slog.String("error", derr.Error()),
				)
			}
		}
		return nil, s.mapRepoErr(err)
	}
	return rec, nil
}

// Get возвращает видимую субъекту запись целиком, с подгруженным
// внешним контентом. Чужая приватная и несуществующая записи
// неразличимы.
func (s *ResourceService) Get(ctx context.Context, id any, p model.Principal) (any, error) {
	rec := s.desc.New()
	if err := s.records.GetVisible(ctx, id, p, rec); err != nil {
		return nil, s.mapRepoErr(err)
	}

	if ref, ok, err := s.desc.Ref(rec); err != nil {
		return nil, err
	} else if ok && ref != "" {
		text, err := s.content.Read(ref)
		if err != nil {
			return nil, err
		}
		if err := s.desc.SetContent(rec, text); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// List возвращает summary-проекции видимых записей.
func (s *ResourceService) List(ctx context.Context, p model.Principal, q repository.ListQuery) ([]any, error) {
	out, err := s.records.ListVisible(ctx, p, q)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}
	return out, nil
}

// Patch применяет разреженное обновление собственной записи субъекта.
// Поле, опущенное в payload, не меняется; внешний контент обновляется
// поверх прежнего файла, а явная пустая строка удаляет файл.
func (s *ResourceService) Patch(ctx context.Context, id any, p model.Principal, body io.Reader, validate ValidateFunc) (any, error) {
	existing := s.desc.New()
	if err := s.records.GetOwned(ctx, id, p, existing); err != nil {
		return nil, s.mapRepoErr(err)
	}

	rec := s.desc.New()
	if err := s.desc.FromPayload(rec, body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.desc.Stamp(rec, p.UserID, p.CampaignID); err != nil {
		return nil, err
	}
	if err := s.desc.SetPK(rec, id); err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	if s.desc.HasExternalContent() {
		text, set, err := s.desc.Content(rec)
		if err != nil {
			return nil, err
		}
		oldRef, _, err := s.desc.Ref(existing)
		if err != nil {
			return nil, err
		}
		switch {
		case set && text != "":
			ref := oldRef
			if ref == "" {
				ref = s.content.NewID()
			}
			if err := s.content.Write(ref, text); err != nil {
				return nil, err
			}
			if err := s.desc.SetRef(rec, ref); err != nil {
				return nil, err
			}
		case set && oldRef != "":
			// Явно присланный пустой контент удаляет файл.
			if err := s.content.Delete(oldRef); err != nil {
				return nil, err
			}
			if err := s.desc.SetRef(rec, ""); err != nil {
				return nil, err
			}
		}
	}

	if err := s.records.UpdateSparse(ctx, rec); err != nil {
		return nil, s.mapRepoErr(err)
	}
	return s.Get(ctx, id, p)
}

// Descriptor возвращает дескриптор сущности сервиса.
func (s *ResourceService) Descriptor() *schema.Descriptor {
	return s.desc
}

// mapRepoErr транслирует ошибки нижних слоёв в таксономию сервиса.
func (s *ResourceService) mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrConflict):
		if msg := s.desc.ConflictMessage(); msg != "" {
			return fmt.Errorf("%w: %s", ErrConflict, msg)
		}
		return ErrConflict
	case errors.Is(err, schema.ErrInvalidField), errors.Is(err, schema.ErrSchemaMismatch):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}
