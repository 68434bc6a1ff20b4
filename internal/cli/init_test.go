package cli

import (
	"path/filepath"
	"testing"

	"logbook/internal/config"
	"logbook/internal/records"
)

func TestRecordPaths(t *testing.T) {
	cfg := &config.Config{
		DataDir: "/srv/logbook",
		Files:   map[string]string{"training": "/mnt/certs/entrants.csv", "audits": "audit_2024.csv"},
	}
	paths := RecordPaths(cfg)

	if len(paths) != len(records.Kinds()) {
		t.Fatalf("expected a path per kind, got %d", len(paths))
	}
	tests := map[records.Kind]string{
		records.KindTraining: "/mnt/certs/entrants.csv",
		records.KindAudit:    filepath.Join("/srv/logbook", "audit_2024.csv"),
		records.KindMeeting:  filepath.Join("/srv/logbook", "Meeting_Table.csv"),
	}
	for kind, want := range tests {
		if got := paths[kind]; got != want {
			t.Errorf("path of %s = %q, want %q", kind, got, want)
		}
	}
}

func TestInitAMQPDisabled(t *testing.T) {
	logger := SetupLogger("error")
	if c := InitAMQP(logger, &config.Config{}); c != nil {
		t.Fatalf("expected nil client without AMQP_URL")
	}
}
