package i18n

import (
	"context"
	"strings"
	"testing"
)

func TestInitAndTranslate(t *testing.T) {
	if err := Init("pt-BR"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ctx := WithLocalizer(context.Background(), NewLocalizer("pt-BR"))
	if got := T(ctx, "HintFallback"); got == "HintFallback" || got == "" {
		t.Errorf("T(HintFallback) = %q, want a translation", got)
	}

	body := Td(ctx, "NotificationBody", map[string]any{
		"Name":    "Silva",
		"Subject": "Matemática",
	})
	if !strings.Contains(body, "Silva") || !strings.Contains(body, "Matemática") {
		t.Errorf("Td(NotificationBody) = %q, want the name and subject interpolated", body)
	}
}

func TestEnglishLocale(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := WithLocalizer(context.Background(), NewLocalizer("en"))
	if got := T(ctx, "ReviewFallback"); !strings.Contains(got, "recruit") {
		t.Errorf("T(ReviewFallback) = %q, want the English text", got)
	}
}

func TestMissingTranslationFallsBackToID(t *testing.T) {
	if err := Init("pt-BR"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx := WithLocalizer(context.Background(), NewLocalizer("pt-BR"))
	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(missing) = %q, want the message id back", got)
	}
}
