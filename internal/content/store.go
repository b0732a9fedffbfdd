// Пакет content — хранение крупного текстового контента сущностей
// вне БД. В строке БД остаётся только непрозрачный id файла; схема
// каталога плоская, по файлу на запись.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrBadID — id файла контента не был выдан хранилищем.
var ErrBadID = errors.New("некорректный id файла контента")

// Store — файловое хранилище контента.
type Store struct {
	// dataDir — корневая директория хранения (LL_DATA_DIR)
	dataDir string
}

// New создаёт Store. Проверяет и создаёт директорию, если она
// не существует.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию данных %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

// NewID возвращает свежий непрозрачный id файла контента.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// path строит путь к файлу контента. Хранилище выдаёт только
// uuid-id; любой другой id (в том числе с элементами пути) →
// ErrBadID, до обращения к файловой системе.
func (s *Store) path(id string) (string, error) {
	if uuid.Validate(id) != nil {
		return "", fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return filepath.Join(s.dataDir, id), nil
}

// Write записывает контент под данным id.
//
// Паттерн: temp файл → запись → fsync → atomic rename.
// При ошибке temp файл удаляется; читатель никогда не видит
// частично записанный файл.
func (s *Store) Write(id, text string) error {
	fullPath, err := s.path(id)
	if err != nil {
		return err
	}
	tmpPath := fullPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи контента: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}
	return nil
}

// Read возвращает контент по id файла.
func (s *Store) Read(id string) (string, error) {
	fullPath, err := s.path(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("файл контента не найден: %s", id)
		}
		return "", fmt.Errorf("ошибка чтения контента %s: %w", id, err)
	}
	return string(data), nil
}

// Delete удаляет файл контента. Возвращает nil, если файл
// уже не существует.
func (s *Store) Delete(id string) error {
	fullPath, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления контента %s: %w", id, err)
	}
	return nil
}

// DataDir возвращает путь к директории данных.
func (s *Store) DataDir() string {
	return s.dataDir
}
