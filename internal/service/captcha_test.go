package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/grimwald/lorelog/internal/repository"
)

// TestBuildPuzzle — головоломка содержит ровно два слова словаря,
// ответ — оба слова подряд в порядке появления.
func TestBuildPuzzle(t *testing.T) {
	for i := 0; i < 200; i++ {
		puzzle, answer := buildPuzzle()

		if len(puzzle) != puzzleLen {
			t.Fatalf("длина головоломки %d, ожидалось %d: %q", len(puzzle), puzzleLen, puzzle)
		}
		if len(answer) != 2*wordLen {
			t.Fatalf("длина ответа %d, ожидалось %d: %q", len(answer), 2*wordLen, answer)
		}

		if countWords(puzzle) != 2 {
			t.Fatalf("головоломка %q содержит %d слов словаря, ожидалось 2",
				puzzle, countWords(puzzle))
		}

		w1, w2 := answer[:wordLen], answer[wordLen:]
		if w1 == w2 {
			t.Fatalf("слова ответа совпадают: %q", answer)
		}
		i1 := strings.Index(puzzle, w1)
		i2 := strings.Index(puzzle, w2)
		if i1 < 0 || i2 < 0 {
			t.Fatalf("слова ответа %q не найдены в головоломке %q", answer, puzzle)
		}
		if i1 >= i2 {
			t.Fatalf("порядок слов в ответе не совпадает с порядком в головоломке: %q / %q", puzzle, answer)
		}
	}
}

// TestCountWords — подсчёт вхождений во всех позициях.
func TestCountWords(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"qzqzqzqzqzqz", 0},
		{"catqzqzqzqzq", 1},
		{"catqzqdogqzq", 2},
		{"catdogsunqzq", 3},
	}

	for _, tt := range tests {
		if got := countWords(tt.s); got != tt.want {
			t.Errorf("countWords(%q) = %d, ожидалось %d", tt.s, got, tt.want)
		}
	}
}

// TestCaptchaWords_NoFillLetters — словарь не содержит букв
// детерминированной заливки.
func TestCaptchaWords_NoFillLetters(t *testing.T) {
	for _, w := range captchaWords {
		if len(w) != wordLen {
			t.Errorf("слово %q не длины %d", w, wordLen)
		}
		if strings.ContainsAny(w, "qz") {
			t.Errorf("слово %q содержит букву заливки", w)
		}
	}
}

// TestCaptchaService_New — выдача головоломки сохраняет одноразовый токен.
func TestCaptchaService_New(t *testing.T) {
	db := &stubDB{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewCaptchaService(repository.NewUserRepository(db), logger)

	ch, err := svc.New(context.Background())
	if err != nil {
		t.Fatalf("New вернул ошибку: %v", err)
	}
	if ch.ID == "" {
		t.Error("выданная captcha без id")
	}
	if len(ch.Puzzle) != puzzleLen {
		t.Errorf("длина головоломки %d, ожидалось %d", len(ch.Puzzle), puzzleLen)
	}

	// Сохранение токена: очистка просроченных + вставка
	var insert string
	for _, q := range db.queries {
		if strings.HasPrefix(q, "INSERT INTO captcha_token") {
			insert = q
		}
	}
	if insert == "" {
		t.Errorf("токен не сохранён, запросы: %v", db.queries)
	}
}
