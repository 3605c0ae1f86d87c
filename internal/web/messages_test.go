package web

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/patches"
	"github.com/JonMunkholm/dipsw/internal/source"
	"github.com/JonMunkholm/dipsw/internal/store"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "no records", err: store.ErrNoRecords, wantCode: "IMP001"},
		{name: "empty model", err: fmt.Errorf("assemble: %w", dipsw.ErrEmptyModel), wantCode: "IMP002"},
		{name: "mixed models", err: errMixedModels, wantCode: "IMP003"},
		{name: "bad key", err: errInvalidKey, wantCode: "IMP004"},
		{name: "too large", err: errBodyTooLarge, wantCode: "IMP005"},
		{name: "invalid payload", err: errInvalidPayload, wantCode: "IMP006"},
		{name: "missing model param", err: errModelParam, wantCode: "IMP007"},
		{name: "busy", err: ErrTooManyImports, wantCode: "IMP008"},
		{name: "bad export format", err: fmt.Errorf("%w: xml", errInvalidFormat), wantCode: "EXP001"},
		{name: "unknown model", err: fmt.Errorf("%w: C9999", errUnknownModel), wantCode: "EXP002"},
		{name: "file not found", err: fmt.Errorf("%w: tables.json", source.ErrFileNotFound), wantCode: "SRC001"},
		{name: "unsupported format", err: fmt.Errorf("%w: .pdf", source.ErrUnsupportedFormat), wantCode: "SRC002"},
		{name: "invalid patch", err: fmt.Errorf("rule 2: %w", patches.ErrInvalidRule), wantCode: "SRC003"},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:5432: connection refused"), wantCode: "DB001"},
		{name: "deadline", err: errors.New("ping database: context deadline exceeded"), wantCode: "DB003"},
		{name: "case insensitive", err: errors.New("DEADLOCK detected"), wantCode: "DB004"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapError(tt.err); got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(store.ErrNoRecords)
	want := "The import contained no records (Code: IMP001). Check that the model has DIP switch tables"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil error is not user facing")
	}
	if !IsUserFacing(source.ErrFileNotFound) {
		t.Error("known error should be user facing")
	}
	if IsUserFacing(errors.New("random internal error xyz")) {
		t.Error("unknown error should not be user facing")
	}
}
