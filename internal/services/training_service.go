package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"logbook/internal/certs"
	"logbook/internal/core"
	"logbook/internal/records"
)

// TrainingEntry is the input for one entrant or attendant training record.
type TrainingEntry struct {
	Name         string
	Role         string
	TrainingDate core.Date
	DueDate      core.Date
	Agency       string
	// CertificateName is the uploaded file's original name; only its
	// extension is used.
	CertificateName string
	Certificate     io.Reader
}

// TrainingService records trainings together with their certificates.
type TrainingService struct {
	records *RecordService
	certs   *certs.Store
}

func NewTrainingService(rs *RecordService, store *certs.Store) *TrainingService {
	return &TrainingService{records: rs, certs: store}
}

// AddEntry stores the certificate and appends the training row. The serial
// number is one past the current row count.
func (s *TrainingService) AddEntry(ctx context.Context, e TrainingEntry) (records.Entrant, error) {
	if strings.TrimSpace(e.Name) == "" {
		return records.Entrant{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if e.Certificate == nil || e.CertificateName == "" {
		return records.Entrant{}, fmt.Errorf("%w: certificate is required", ErrValidation)
	}
	ext := filepath.Ext(e.CertificateName)
	if !certs.AllowedExtension(ext) {
		return records.Entrant{}, fmt.Errorf("%w: %w: %q", ErrValidation, certs.ErrUnsupportedType, ext)
	}

	fileName := certs.FileName(e.Name, e.Role, e.DueDate, e.Agency, ext)
	if _, err := s.certs.Save(ctx, fileName, e.Certificate); err != nil {
		return records.Entrant{}, err
	}

	var added records.Entrant
	_, err := s.records.Mutate(ctx, records.KindTraining, "", func(t core.Table) (core.Table, error) {
		added = records.Entrant{
			SN:              strconv.Itoa(t.Len() + 1),
			Name:            strings.TrimSpace(e.Name),
			Role:            e.Role,
			TrainingDate:    e.TrainingDate,
			DueDate:         e.DueDate,
			Agency:          e.Agency,
			CertificateFile: fileName,
			CertificateLink: certs.Link(fileName),
		}
		rec, err := records.EncodeOne(records.KindTraining, added)
		if err != nil {
			return t, err
		}
		return t.Append(rec)
	})
	if err != nil {
		return records.Entrant{}, err
	}
	return added, nil
}

// Entrants returns the typed training records.
func (s *TrainingService) Entrants(ctx context.Context) ([]records.Entrant, error) {
	t, err := s.records.Load(ctx, records.KindTraining)
	if err != nil {
		return nil, err
	}
	return records.Decode[records.Entrant](t)
}

// Certificate opens a stored certificate by file name or published link.
func (s *TrainingService) Certificate(name string) (*os.File, error) {
	return s.certs.Open(certs.NameFromLink(name))
}
