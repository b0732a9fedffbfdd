// captcha.go — captcha для регистрации: строка из случайных букв,
// в которой спрятаны два коротких слова. Ответ — оба слова подряд
// в порядке появления. Токен одноразовый и живёт captchaTTL.
package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/repository"
)

const (
	// captchaTTL — срок жизни captcha-токена.
	captchaTTL = 10 * time.Minute
	// puzzleLen — длина строки-головоломки.
	puzzleLen = 12
	// wordLen — длина прятаемого слова.
	wordLen = 3
	// buildAttempts — потолок попыток генерации без случайных
	// вхождений лишних слов.
	buildAttempts = 32
)

// captchaWords — словарь прятаемых слов. Буквы q и z в словаре
// не встречаются: из них строится гарантированно «чистая» заливка.
var captchaWords = []string{
	"cat", "dog", "sun", "map", "orc", "elf", "axe", "bow",
	"ink", "gem", "owl", "fox", "bat", "imp", "rat", "key",
}

// CaptchaChallenge — выданная головоломка.
type CaptchaChallenge struct {
	ID     string `json:"id"`
	Puzzle string `json:"puzzle"`
}

// CaptchaService — выдача captcha-головоломок.
type CaptchaService struct {
	users  *repository.UserRepository
	logger *slog.Logger
}

// NewCaptchaService создаёт сервис captcha.
func NewCaptchaService(users *repository.UserRepository, logger *slog.Logger) *CaptchaService {
	return &CaptchaService{
		users:  users,
		logger: logger.With(slog.String("component", "captcha_service")),
	}
}

// New выдаёт новую головоломку и сохраняет токен с ответом.
func (s *CaptchaService) New(ctx context.Context) (CaptchaChallenge, error) {
	puzzle, answer := buildPuzzle()
	token := model.CaptchaToken{
		ID:       uuid.NewString(),
		Answer:   answer,
		IssuedAt: time.Now(),
	}
	if err := s.users.StoreCaptcha(ctx, token, captchaTTL); err != nil {
		return CaptchaChallenge{}, err
	}
	return CaptchaChallenge{ID: token.ID, Puzzle: puzzle}, nil
}

// buildPuzzle строит строку из puzzleLen букв с двумя словами словаря
// и возвращает её вместе с ответом. Случайная заливка может сложиться
// в лишнее слово — тогда попытка повторяется; после buildAttempts
// неудач заливка берётся из букв вне словаря.
func buildPuzzle() (puzzle, answer string) {
	w1 := captchaWords[rand.IntN(len(captchaWords))]
	w2 := captchaWords[rand.IntN(len(captchaWords))]
	for w2 == w1 {
		w2 = captchaWords[rand.IntN(len(captchaWords))]
	}

	// Непересекающиеся позиции: первое слово в левой половине,
	// второе — в правой.
	p1 := rand.IntN(puzzleLen/2 - wordLen + 1)
	p2 := puzzleLen/2 + rand.IntN(puzzleLen/2-wordLen+1)

	for attempt := 0; attempt < buildAttempts; attempt++ {
		buf := make([]byte, puzzleLen)
		for i := range buf {
			buf[i] = byte('a' + rand.IntN(26))
		}
		copy(buf[p1:], w1)
		copy(buf[p2:], w2)
		if countWords(string(buf)) == 2 {
			return string(buf), w1 + w2
		}
	}

	// Детерминированная заливка из букв вне словаря.
	buf := make([]byte, puzzleLen)
	for i := range buf {
		if i%2 == 0 {
			buf[i] = 'q'
		} else {
			buf[i] = 'z'
		}
	}
	copy(buf[p1:], w1)
	copy(buf[p2:], w2)
	return string(buf), w1 + w2
}

// countWords считает вхождения слов словаря во всех позициях строки.
func countWords(s string) int {
	n := 0
	for i := 0; i+wordLen <= len(s); i++ {
		for _, w := range captchaWords {
			if strings.HasPrefix(s[i:], w) {
				n++
			}
		}
	}
	return n
}
