// users.go — персистентность учётных записей, профилей, кампаний
// и captcha-токенов.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/grimwald/lorelog/internal/domain/model"
)

// UserRepository — запросы к учётным записям и связанным таблицам.
type UserRepository struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий учётных записей.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx возвращает копию репозитория, выполняющую запросы в tx.
func (r *UserRepository) WithTx(tx DBTX) *UserRepository {
	return &UserRepository{db: tx}
}

// CreateUser вставляет учётную запись. Повторный email → ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, u model.User) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO app_user (id, email, alias, password_hash, active) VALUES ($1, $2, $3, $4, $5)",
		u.ID, u.Email, u.Alias, u.PasswordHash, u.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь с таким email уже зарегистрирован", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// GetByEmail возвращает учётную запись по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		"SELECT id, email, alias, password_hash, active FROM app_user WHERE email = $1",
		email).Scan(&u.ID, &u.Email, &u.Alias, &u.PasswordHash, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}
	return u, nil
}

// GetByID возвращает учётную запись по id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		"SELECT id, email, alias, password_hash, active FROM app_user WHERE id = $1",
		id).Scan(&u.ID, &u.Email, &u.Alias, &u.PasswordHash, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}
	return u, nil
}

// CreateProfile создаёт пустой профиль пользователя.
func (r *UserRepository) CreateProfile(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx,
		"INSERT INTO profile (user_id, image, timezone, status) VALUES ($1, '', '', '')",
		userID); err != nil {
		return fmt.Errorf("ошибка создания профиля: %w", err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	p := model.Profile{UserID: userID}
	err := r.db.QueryRow(ctx,
		"SELECT image, timezone, status FROM profile WHERE user_id = $1",
		userID).Scan(&p.Image, &p.Timezone, &p.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("ошибка чтения профиля: %w", err)
	}
	return p, nil
}

// UpdateProfile сохраняет профиль пользователя целиком.
func (r *UserRepository) UpdateProfile(ctx context.Context, p model.Profile) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE profile SET image = $1, timezone = $2, status = $3 WHERE user_id = $4",
		p.Image, p.Timezone, p.Status, p.UserID)
	if err != nil {
		return fmt.Errorf("ошибка обновления профиля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCampaignMember добавляет пользователя в кампанию.
func (r *UserRepository) AddCampaignMember(ctx context.Context, userID string, campaignID int64) error {
	if _, err := r.db.Exec(ctx,
		"INSERT INTO campaign_member (user_id, campaign_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, campaignID); err != nil {
		return fmt.Errorf("ошибка добавления в кампанию: %w", err)
	}
	return nil
}

// Campaigns возвращает кампании пользователя.
func (r *UserRepository) Campaigns(ctx context.Context, userID string) ([]model.Campaign, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name, c.start_tick
		 FROM campaign c
		 JOIN campaign_member m ON m.campaign_id = c.id
		 WHERE m.user_id = $1
		 ORDER BY c.id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки кампаний: %w", err)
	}
	defer rows.Close()

	var out []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.StartTick); err != nil {
			return nil, fmt.Errorf("ошибка чтения кампании: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки кампаний: %w", err)
	}
	return out, nil
}

// CampaignByID возвращает кампанию по id.
func (r *UserRepository) CampaignByID(ctx context.Context, id int64) (model.Campaign, error) {
	var c model.Campaign
	err := r.db.QueryRow(ctx,
		"SELECT id, name, start_tick FROM campaign WHERE id = $1",
		id).Scan(&c.ID, &c.Name, &c.StartTick)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Campaign{}, ErrNotFound
	}
	if err != nil {
		return model.Campaign{}, fmt.Errorf("ошибка чтения кампании: %w", err)
	}
	return c, nil
}

// ReferralCampaign возвращает кампанию по реферальному коду регистрации.
func (r *UserRepository) ReferralCampaign(ctx context.Context, code string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"SELECT campaign_id FROM campaign_referral WHERE code = $1",
		code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения реферального кода: %w", err)
	}
	return id, nil
}

// StoreCaptcha сохраняет выданный captcha-токен, попутно вычищая
// токены старше ttl.
func (r *UserRepository) StoreCaptcha(ctx context.Context, t model.CaptchaToken, ttl time.Duration) error {
	if _, err := r.db.Exec(ctx,
		"DELETE FROM captcha_token WHERE issued_at < $1",
		time.Now().Add(-ttl)); err != nil {
		return fmt.Errorf("ошибка очистки captcha-токенов: %w", err)
	}
	if _, err := r.db.Exec(ctx,
		"INSERT INTO captcha_token (id, answer, issued_at) VALUES ($1, $2, $3)",
		t.ID, t.Answer, t.IssuedAt); err != nil {
		return fmt.Errorf("ошибка сохранения captcha-токена: %w", err)
	}
	return nil
}

// TakeCaptcha атомарно изымает captcha-токен: повторное использование
// того же токена невозможно.
func (r *UserRepository) TakeCaptcha(ctx context.Context, id string) (model.CaptchaToken, error) {
	t := model.CaptchaToken{ID: id}
	err := r.db.QueryRow(ctx,
		"DELETE FROM captcha_token WHERE id = $1 RETURNING answer, issued_at",
		id).Scan(&t.Answer, &t.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CaptchaToken{}, ErrNotFound
	}
	if err != nil {
		return model.CaptchaToken{}, fmt.Errorf("ошибка изъятия captcha-токена: %w", err)
	}
	return t, nil
}
