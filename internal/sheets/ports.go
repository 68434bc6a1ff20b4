package sheets

import (
	"context"

	"logbook/internal/core"
)

// Ports for outbound adapters.
type (
	// TableMirror publishes a full copy of a record table to an external
	// spreadsheet, replacing whatever the kind's tab held before.
	TableMirror interface {
		Mirror(ctx context.Context, kind string, t core.Table) error
	}

	// TabReader reads back a mirrored tab as text rows, header first.
	TabReader interface {
		ReadTab(ctx context.Context, kind string) ([][]string, error)
	}
)
