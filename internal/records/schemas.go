// Package records declares the record kinds kept in the logbook and their
// typed projections.
package records

import (
	"fmt"
	"slices"
	"strings"

	"logbook/internal/core"
)

// Kind identifies a record kind and names its backing file.
type Kind string

const (
	KindMeeting    Kind = "meetings"
	KindRoster     Kind = "roster"
	KindAttendance Kind = "attendance"
	KindEquipment  Kind = "equipment"
	KindAudit      Kind = "audits"
	KindTraining   Kind = "training"
)

// Column names shared by more than one kind.
const (
	ColTeam           = "Team Name"
	ColName           = "Name"
	ColResponsibility = "Responsibility"
	ColTargetDate     = "Target date"
	ColStatus         = "Status (Done/Pending)"
	ColRemarks        = "Remarks"
	ColAuditLevel     = "Audit Level"
	ColSeverity       = "Severity (High/Low)"
	ColSN             = "SN"
	ColDueDate        = "Due date"
)

// Status values.
const (
	StatusDone    = "Done"
	StatusPending = "Pending"
	Present       = "Present"
	Absent        = "Absent"
)

var (
	// MeetingAuditLevels are the levels offered when recording a meeting.
	MeetingAuditLevels = []string{"L1 audit", "L2 audit", "L3 audit", "Monthly"}
	// AuditLevels are the levels an audit entry can carry.
	AuditLevels = []string{"L1", "L2", "L3", "Monthly Audit"}
	// Severities for meeting points.
	Severities = []string{"High", "Low"}
)

var schemas = map[Kind]core.Schema{
	KindMeeting: {
		Kind: string(KindMeeting),
		Columns: []string{
			ColTeam, ColAuditLevel, "Point of discussion", ColSeverity,
			ColResponsibility, ColTargetDate, ColStatus, ColRemarks,
		},
		DateColumns: []string{ColTargetDate},
		Aliases: map[string]string{
			"Severity": ColSeverity,
			"Status":   ColStatus,
		},
	},
	KindRoster: {
		Kind:    string(KindRoster),
		Columns: []string{ColTeam, ColName, "Password"},
		Aliases: map[string]string{"Department": ColTeam},
	},
	KindAttendance: {
		Kind:        string(KindAttendance),
		Columns:     []string{"Date", ColTeam, "Names", "Status"},
		DateColumns: []string{"Date"},
		Aliases:     map[string]string{"Status (Present/Absent)": "Status"},
	},
	KindEquipment: {
		Kind:        string(KindEquipment),
		Columns:     []string{ColSN, "Equipment name", "Previous Test date", "Test date", ColDueDate},
		DateColumns: []string{"Previous Test date", "Test date", ColDueDate},
	},
	KindAudit: {
		Kind: string(KindAudit),
		Columns: []string{
			ColAuditLevel, "Point", "Area", "Department", ColResponsibility,
			ColTargetDate, ColStatus, ColRemarks,
		},
		DateColumns: []string{ColTargetDate},
		Aliases:     map[string]string{"Status": ColStatus},
	},
	KindTraining: {
		Kind: string(KindTraining),
		Columns: []string{
			ColSN, ColName, "Role", "Training date", ColDueDate, "Agency",
			"Certificate File Name", "Certificate Link",
		},
		DateColumns: []string{"Training date", ColDueDate},
	},
}

// DefaultFiles maps each kind to its file name under the data directory.
var DefaultFiles = map[Kind]string{
	KindMeeting:    "Meeting_Table.csv",
	KindRoster:     "attendance_data.csv",
	KindAttendance: "attendance_records.csv",
	KindEquipment:  "equipment_data.csv",
	KindAudit:      "audit_data.csv",
	KindTraining:   "entrant_attendant_data.csv",
}

// Kinds returns every record kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMeeting, KindRoster, KindAttendance, KindEquipment, KindAudit, KindTraining}
}

// SchemaFor returns the schema of kind k. The returned schema shares no
// slices with the registry.
func SchemaFor(k Kind) (core.Schema, error) {
	s, ok := schemas[k]
	if !ok {
		return core.Schema{}, fmt.Errorf("%w: %q", core.ErrUnknownKind, k)
	}
	s.Columns = slices.Clone(s.Columns)
	s.DateColumns = slices.Clone(s.DateColumns)
	return s, nil
}

// ParseKind resolves a kind from its slug, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemas[k]; !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownKind, s)
	}
	return k, nil
}

// MustSchema is SchemaFor for kinds known at compile time.
func MustSchema(k Kind) core.Schema {
	s, err := SchemaFor(k)
	if err != nil {
		panic(err)
	}
	return s
}
