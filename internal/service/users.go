// users.go — сервис учётных записей: регистрация по captcha и
// реферальному коду, логин с выдачей самоподписанного JWT, профиль,
// смена выбранной кампании и сверка субъекта токена с БД.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/grimwald/lorelog/internal/api/middleware"
	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

// minPasswordLen — минимальная длина пароля при регистрации.
const minPasswordLen = 8

// UserService — операции над учётными записями.
type UserService struct {
	users     *repository.UserRepository
	tx        *repository.TxRunner
	jwtSecret []byte
	jwtTTL    time.Duration
	logger    *slog.Logger
}

// NewUserService создаёт сервис учётных записей.
func NewUserService(users *repository.UserRepository, tx *repository.TxRunner, jwtSecret []byte, jwtTTL time.Duration, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		tx:        tx,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// RegisterRequest — payload регистрации.
type RegisterRequest struct {
	Email         string `json:"email"`
	Alias         string `json:"alias"`
	Password      string `json:"password"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
	ReferralCode  string `json:"referral_code"`
}

// RegisteredUser — публичное представление созданной учётной записи.
type RegisteredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Alias string `json:"alias"`
}

// Register создаёт учётную запись. Captcha-токен изымается до любых
// других проверок: и верный, и неверный ответ тратят токен.
// Реферальный код сразу включает пользователя в кампанию.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (RegisteredUser, error) {
	if !strings.Contains(req.Email, "@") {
		return RegisteredUser{}, fmt.Errorf("%w: некорректный email", ErrValidation)
	}
	if req.Alias == "" {
		return RegisteredUser{}, fmt.Errorf("%w: поле alias обязательно", ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return RegisteredUser{}, fmt.Errorf("%w: пароль короче %d символов", ErrValidation, minPasswordLen)
	}

	token, err := s.users.TakeCaptcha(ctx, req.CaptchaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return RegisteredUser{}, fmt.Errorf("%w: captcha-токен не найден или просрочен", ErrValidation)
		}
		return RegisteredUser{}, err
	}
	if time.Since(token.IssuedAt) > captchaTTL || !strings.EqualFold(strings.TrimSpace(req.CaptchaAnswer), token.Answer) {
		return RegisteredUser{}, fmt.Errorf("%w: неверный ответ captcha", ErrValidation)
	}

	var campaignID int64
	if req.ReferralCode != "" {
		campaignID, err = s.users.ReferralCampaign(ctx, req.ReferralCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return RegisteredUser{}, fmt.Errorf("%w: неизвестный реферальный код", ErrValidation)
			}
			return RegisteredUser{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisteredUser{}, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	u := model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		Alias:        req.Alias,
		PasswordHash: hash,
		Active:       true,
	}

	err = s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := s.users.WithTx(tx)
		if err := repo.CreateUser(ctx, u); err != nil {
			return err
		}
		if err := repo.CreateProfile(ctx, u.ID); err != nil {
			return err
		}
		if campaignID != 0 {
			return repo.AddCampaignMember(ctx, u.ID, campaignID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return RegisteredUser{}, fmt.Errorf("%w: пользователь с таким email уже зарегистрирован", ErrConflict)
		}
		return RegisteredUser{}, err
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", u.ID),
		slog.Int64("campaign_id", campaignID),
	)
	return RegisteredUser{ID: u.ID, Email: u.Email, Alias: u.Alias}, nil
}

// LoginResult — результат логина.
type LoginResult struct {
	Token      string           `json:"token"`
	Alias      string           `json:"alias"`
	Campaigns  []model.Campaign `json:"campaigns"`
	CampaignID int64            `json:"campaign_id"`
}

// Login проверяет учётные данные и выдаёт JWT. Несуществующий email
// и неверный пароль неразличимы.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}
	if !u.Active {
		return LoginResult{}, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return LoginResult{}, ErrUnauthorized
	}

	campaigns, err := s.users.Campaigns(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	var selected int64
	if len(campaigns) > 0 {
		selected = campaigns[0].ID
	}

	token, err := s.issueToken(u, campaigns, selected)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Alias: u.Alias, Campaigns: campaigns, CampaignID: selected}, nil
}

// SwitchCampaign выдаёт новый JWT с другой выбранной кампанией.
func (s *UserService) SwitchCampaign(ctx context.Context, p model.Principal, campaignID int64) (LoginResult, error) {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}
	campaigns, err := s.users.Campaigns(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	if !memberOf(campaigns, campaignID) {
		return LoginResult{}, fmt.Errorf("%w: пользователь не состоит в кампании %d", ErrValidation, campaignID)
	}

	token, err := s.issueToken(u, campaigns, campaignID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Alias: u.Alias, Campaigns: campaigns, CampaignID: campaignID}, nil
}

// issueToken подписывает JWT (HS256) с данными пользователя.
func (s *UserService) issueToken(u model.User, campaigns []model.Campaign, selected int64) (string, error) {
	ids := make([]int64, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.ID
	}
	now := time.Now()
	claims := &middleware.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
		Email:      u.Email,
		Alias:      u.Alias,
		Campaigns:  ids,
		CampaignID: selected,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return token, nil
}

// ResolvePrincipal сверяет claims токена с БД: учётная запись должна
// существовать и быть активной, выбранная кампания — актуальной.
func (s *UserService) ResolvePrincipal(ctx context.Context, claims *middleware.AuthClaims) (model.Principal, error) {
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Principal{}, ErrUnauthorized
		}
		return model.Principal{}, err
	}
	if !u.Active {
		return model.Principal{}, ErrUnauthorized
	}
	if claims.CampaignID != 0 {
		campaigns, err := s.users.Campaigns(ctx, u.ID)
		if err != nil {
			return model.Principal{}, err
		}
		if !memberOf(campaigns, claims.CampaignID) {
			return model.Principal{}, ErrUnauthorized
		}
	}
	return model.Principal{
		UserID:     u.ID,
		Email:      u.Email,
		Alias:      u.Alias,
		CampaignID: claims.CampaignID,
	}, nil
}

// GetProfile возвращает профиль пользователя.
func (s *UserService) GetProfile(ctx context.Context, p model.Principal) (model.Profile, error) {
	profile, err := s.users.GetProfile(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	return profile, nil
}

// PatchProfile применяет разреженное обновление профиля.
func (s *UserService) PatchProfile(ctx context.Context, p model.Principal, body io.Reader) (model.Profile, error) {
	profile, err := s.GetProfile(ctx, p)
	if err != nil {
		return model.Profile{}, err
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return model.Profile{}, fmt.Errorf("%w: некорректный JSON", ErrValidation)
	}
	for key, data := range raw {
		var target *string
		switch key {
		case "image":
			target = &profile.Image
		case "timezone":
			target = &profile.Timezone
		case "status":
			target = &profile.Status
		default:
			return model.Profile{}, fmt.Errorf("%w: неизвестное поле %s", ErrValidation, key)
		}
		if err := json.Unmarshal(data, target); err != nil {
			return model.Profile{}, fmt.Errorf("%w: поле %s", ErrValidation, key)
		}
	}

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	return profile, nil
}

// memberOf сообщает, входит ли кампания в список.
func memberOf(campaigns []model.Campaign, id int64) bool {
	for _, c := range campaigns {
		if c.ID == id {
			return true
		}
	}
	return false
}
