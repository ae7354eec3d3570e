package extract

import (
	"errors"
	"testing"

	"github.com/aironrush/assistant/internal/domain"
)

func TestTextPlain(t *testing.T) {
	got, err := Text([]byte("hello world"), "text/plain")
	if err != nil {
		t.Fatalf("text/plain: %v", err)
	}
	if got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestTextPlainWithCharsetParam(t *testing.T) {
	got, err := Text([]byte("héllo"), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("text/plain with params: %v", err)
	}
	if got != "héllo" {
		t.Fatalf("got %q", got)
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text([]byte("x"), "image/png")
	if !errors.Is(err, domain.ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
}

func TestTextMalformedPDF(t *testing.T) {
	_, err := Text([]byte("definitely not a pdf"), "application/pdf")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestTextMalformedDocx(t *testing.T) {
	_, err := Text([]byte{0x00, 0x01, 0x02}, "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}
