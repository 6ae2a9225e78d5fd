package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")

	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty input", []any{}, nil},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, []string{"a", "b", "c"}},
		{"time type", []any{"t", now}, []string{"t"}},
		{"duration", []any{"elapsed", time.Second}, []string{"elapsed"}},
		{"bytes", []any{"data", []byte("xyz")}, []string{"data"}},
		{"error only", []any{err}, []string{"error"}},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, []string{"msg", "x", "num"}},
		{"odd number of args", []any{"key1", "val1", "key2"}, []string{"key1", "arg#2"}},
		{"non-string key", []any{123, "value"}, []string{"invalid_key_1"}},
		{"nil values", []any{"a", nil, "b", (*int)(nil)}, []string{"a", "b"}},
		{"map value", []any{"vehicle", map[string]string{"id": "AAA"}}, []string{"vehicle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			if len(fields) != len(tt.wantKeys) {
				t.Fatalf("toFields(%v) returned %d fields, want %d", tt.input, len(fields), len(tt.wantKeys))
			}
			for i, f := range fields {
				if f.Key != tt.wantKeys[i] {
					t.Errorf("field %d key = %q, want %q", i, f.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestTypedField(t *testing.T) {
	tests := []struct {
		val  any
		want zapcore.FieldType
	}{
		{"s", zapcore.StringType},
		{true, zapcore.BoolType},
		{7, zapcore.Int64Type},
		{time.Millisecond, zapcore.DurationType},
		{errors.New("x"), zapcore.ErrorType},
	}
	for _, tt := range tests {
		if got := typedField("k", tt.val).Type; got != tt.want {
			t.Errorf("typedField(%T) type = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	if errs := opts.Validate(); len(errs) != 0 {
		t.Fatalf("default options should be valid, got %v", errs)
	}

	opts.Level = "loud"
	opts.Format = "xml"
	if errs := opts.Validate(); len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	opts := NewOptions()
	opts.Format = FormatJSON
	opts.OutputPaths = []string{"stderr"}
	opts.Name = "test"

	l := NewLogger(opts)
	l.WithValues("vehicleID", "AAA").Info("connected")
	if l.Logr().GetSink() == nil {
		t.Fatal("expected a logr sink")
	}
}
