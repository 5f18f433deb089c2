package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "gemini.key")
	if err := os.WriteFile(keyFile, []byte("  file-secret\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty.key")
	if err := os.WriteFile(emptyFile, nil, 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("COACH_TEST_SECRET", " env-secret ")
	t.Setenv("COACH_TEST_UNSET", "")

	cases := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{name: "file wins", src: Source{Name: "gemini api key", File: keyFile, Value: "inline", Env: "COACH_TEST_SECRET"}, want: "file-secret"},
		{name: "inline value", src: Source{Value: " inline "}, want: "inline"},
		{name: "env fallback", src: Source{Env: "COACH_TEST_SECRET"}, want: "env-secret"},
		{name: "empty file", src: Source{Name: "apify token", File: emptyFile}, wantErr: "is empty"},
		{name: "missing file", src: Source{Name: "apify token", File: filepath.Join(dir, "nope")}, wantErr: "reading apify token"},
		{name: "nothing configured", src: Source{}, wantErr: "secret is not configured"},
		{name: "env unset", src: Source{Name: "gemini api key", Env: "COACH_TEST_UNSET"}, wantErr: "set COACH_TEST_UNSET"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Load(tc.src)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				if strings.Contains(tc.wantErr, "not configured") || strings.HasPrefix(tc.wantErr, "set ") {
					if !errors.Is(err, ErrNotConfigured) {
						t.Fatalf("expected ErrNotConfigured, got %v", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
