package records

import "logbook/internal/core"

type (
	// Meeting is one point raised in a team meeting.
	Meeting struct {
		Team           string    `csv:"Team Name" json:"team"`
		AuditLevel     string    `csv:"Audit Level" json:"audit_level"`
		Point          string    `csv:"Point of discussion" json:"point"`
		Severity       string    `csv:"Severity (High/Low)" json:"severity"`
		Responsibility string    `csv:"Responsibility" json:"responsibility"`
		TargetDate     core.Date `csv:"Target date" json:"target_date"`
		Status         string    `csv:"Status (Done/Pending)" json:"status"`
		Remarks        string    `csv:"Remarks" json:"remarks"`
	}

	// Member is a roster entry. Password is served like any other column.
	Member struct {
		Team     string `csv:"Team Name" json:"team"`
		Name     string `csv:"Name" json:"name"`
		Password string `csv:"Password" json:"password"`
	}

	// AttendanceRecord is one marking for a team on a day; Names is the
	// comma-delimited list of people sharing Status.
	AttendanceRecord struct {
		Date   core.Date `csv:"Date" json:"date"`
		Team   string    `csv:"Team Name" json:"team"`
		Names  string    `csv:"Names" json:"names"`
		Status string    `csv:"Status" json:"status"`
	}

	// Equipment is a tested item with its test schedule.
	Equipment struct {
		SN               string    `csv:"SN" json:"sn"`
		Name             string    `csv:"Equipment name" json:"name"`
		PreviousTestDate core.Date `csv:"Previous Test date" json:"previous_test_date"`
		TestDate         core.Date `csv:"Test date" json:"test_date"`
		DueDate          core.Date `csv:"Due date" json:"due_date"`
	}

	// Audit is one audit finding.
	Audit struct {
		Level          string    `csv:"Audit Level" json:"level"`
		Point          string    `csv:"Point" json:"point"`
		Area           string    `csv:"Area" json:"area"`
		Department     string    `csv:"Department" json:"department"`
		Responsibility string    `csv:"Responsibility" json:"responsibility"`
		TargetDate     core.Date `csv:"Target date" json:"target_date"`
		Status         string    `csv:"Status (Done/Pending)" json:"status"`
		Remarks        string    `csv:"Remarks" json:"remarks"`
	}

	// Entrant is a training record for an entrant or attendant.
	Entrant struct {
		SN              string    `csv:"SN" json:"sn"`
		Name            string    `csv:"Name" json:"name"`
		Role            string    `csv:"Role" json:"role"`
		TrainingDate    core.Date `csv:"Training date" json:"training_date"`
		DueDate         core.Date `csv:"Due date" json:"due_date"`
		Agency          string    `csv:"Agency" json:"agency"`
		CertificateFile string    `csv:"Certificate File Name" json:"certificate_file"`
		CertificateLink string    `csv:"Certificate Link" json:"certificate_link"`
	}
)
