package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "gemini-2.5-flash").Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-2.5-flash" {
		t.Fatalf("unexpected model field %q", ctx[FieldModel])
	}

	// nil logger falls back to a no-op logger.
	WithCommonFields(nil, "gemini", "model-x").Info("another log")
}

func TestWithThread(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithThread(zap.New(core), "0192-thread", "").Info("turn completed")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldThread] != "0192-thread" {
		t.Fatalf("unexpected thread field: %v", ctx[FieldThread])
	}
	if _, ok := ctx[FieldProfileURL]; ok {
		t.Fatalf("empty profile url must be omitted: %v", ctx)
	}
}
