package backend

import (
	"context"
	"testing"

	"logbook/internal/config"
	"logbook/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{MirrorBackend: "sheets", GoogleSpreadsheetID: "sheet-1", GoogleServiceAccountJSON: "{}"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if bc.Type != SheetsBackend || bc.GoogleSpreadsheetID != "sheet-1" {
		t.Fatalf("unexpected config %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{MirrorBackend: "sqlite"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"none", Config{Type: NoneBackend}, false},
		{"memory", Config{Type: MemoryBackend}, false},
		{"sheets ok", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleServiceAccountFile: "sa.json"}, false},
		{"sheets without id", Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x"}, true},
		{"invalid", Config{Type: "ftp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: NoneBackend})
	if err != nil || res.Mirror != nil {
		t.Fatalf("none backend: %+v, %v", res, err)
	}

	res, err = f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := res.Mirror.(*memory.Mirror); !ok {
		t.Fatalf("expected memory mirror, got %T", res.Mirror)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: SheetsBackend}); err == nil {
		t.Fatalf("expected error for unconfigured sheets backend")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "none" {
		t.Fatalf("unexpected backend types %v", got)
	}
}
