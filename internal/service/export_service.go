package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unirecords/university-api/internal/models"
	appErrors "github.com/unirecords/university-api/pkg/errors"
	"github.com/unirecords/university-api/pkg/export"
	"github.com/unirecords/university-api/pkg/jobs"
	"github.com/unirecords/university-api/pkg/storage"
)

// ExportFormat selects the rendering of a roster export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks a roster export through its lifecycle.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob is the client-visible state of one roster export.
type ExportJob struct {
	ID          string       `json:"id"`
	CourseID    int64        `json:"courseId"`
	Format      ExportFormat `json:"format"`
	Status      ExportStatus `json:"status"`
	Error       string       `json:"error,omitempty"`
	DownloadURL string       `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	FinishedAt  *time.Time   `json:"finishedAt,omitempty"`

	relPath string
}

// CreateExportRequest carries the fields accepted when requesting an export.
type CreateExportRequest struct {
	CourseID int64        `json:"courseId" validate:"required,min=1"`
	Format   ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

type rosterSource interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error)
}

// ExportService renders course rosters to CSV or PDF in the background and
// hands out signed download tokens for the results. Job state lives in
// memory, so a restart forgets pending exports; clients resubmit.
type ExportService struct {
	source    rosterSource
	files     *storage.LocalStorage
	signer    *storage.DownloadSigner
	retention time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger

	queue *jobs.Queue

	mu      sync.RWMutex
	records map[string]*ExportJob
}

// NewExportService constructs ExportService. Files older than retention are
// purged in the background. Start must be called before exports are
// requested.
func NewExportService(source rosterSource, files *storage.LocalStorage, signer *storage.DownloadSigner, retention time.Duration, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ExportService{
		source:    source,
		files:     files,
		signer:    signer,
		retention: retention,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: newValidator(),
		logger:    logger,
		records:   map[string]*ExportJob{},
	}
}

// Start boots the background workers that render exports and the janitor
// that purges expired result files.
func (s *ExportService) Start(ctx context.Context, workers int) {
	s.queue = jobs.NewQueue("roster-exports", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  s.logger,
	})
	s.queue.Start(ctx)
	go s.janitor(ctx)
}

func (s *ExportService) janitor(ctx context.Context) {
	interval := s.retention / 4
	if interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.files.CleanupOlderThan(s.retention)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("purged expired exports", zap.Int("files", removed))
			}
			s.pruneRecords()
		}
	}
}

func (s *ExportService) pruneRecords() {
	cutoff := time.Now().Add(-s.retention)
	s.mu.Lock()
	for id, record := range s.records {
		if record.FinishedAt != nil && record.FinishedAt.Before(cutoff) {
			delete(s.records, id)
		}
	}
	s.mu.Unlock()
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Request validates and enqueues a roster export, returning the queued job.
func (s *ExportService) Request(ctx context.Context, req CreateExportRequest) (*ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError("invalid export payload", err)
	}
	if s.queue == nil {
		return nil, appErrors.Wrap(fmt.Errorf("export queue not started"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "exports unavailable")
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		CourseID:  req.CourseID,
		Format:    req.Format,
		Status:    ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.records[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "roster-export"}); err != nil {
		s.fail(job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}
	return s.snapshot(job.ID), nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(id string) (*ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Export not found")
	}
	return job, nil
}

// ExportDownload locates a finished export file on disk.
type ExportDownload struct {
	Path     string
	Filename string
}

// Download validates a signed token and resolves the file it references.
func (s *ExportService) Download(token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Export not found")
	}
	if job.Status != ExportStatusFinished || job.relPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	file.Close()
	return &ExportDownload{Path: s.files.Path(relPath), Filename: fmt.Sprintf("course-%d-roster.%s", job.CourseID, job.Format)}, nil
}

func (s *ExportService) process(ctx context.Context, j jobs.Job) error {
	job := s.snapshot(j.ID)
	if job == nil {
		s.logger.Warn("export job vanished", zap.String("job_id", j.ID))
		return nil
	}
	s.transition(j.ID, ExportStatusProcessing)

	rows, err := s.source.ListByCourse(ctx, job.CourseID)
	if err != nil {
		s.fail(j.ID, err)
		return err
	}
	table := rosterTable(job.CourseID, rows)

	var data []byte
	switch job.Format {
	case ExportFormatPDF:
		data, err = s.pdf.Render(table)
	default:
		data, err = s.csv.Render(table)
	}
	if err != nil {
		s.fail(j.ID, err)
		return err
	}

	relPath, err := s.files.Save(fmt.Sprintf("rosters/course-%d-%s.%s", job.CourseID, job.ID, job.Format), data)
	if err != nil {
		s.fail(j.ID, err)
		return err
	}
	token, _, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		s.fail(j.ID, err)
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if record, ok := s.records[j.ID]; ok {
		record.Status = ExportStatusFinished
		record.Error = ""
		record.DownloadURL = "/api/enrollments/exports/download/" + token
		record.FinishedAt = &now
		record.relPath = relPath
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) transition(id string, status ExportStatus) {
	s.mu.Lock()
	if record, ok := s.records[id]; ok {
		record.Status = status
	}
	s.mu.Unlock()
}

func (s *ExportService) fail(id string, err error) {
	now := time.Now().UTC()
	s.mu.Lock()
	if record, ok := s.records[id]; ok {
		record.Status = ExportStatusFailed
		record.Error = err.Error()
		record.FinishedAt = &now
	}
	s.mu.Unlock()
}

func (s *ExportService) snapshot(id string) *ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil
	}
	out := *record
	return &out
}

func rosterTable(courseID int64, rows []models.Enrollment) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("Course %d Roster", courseID),
		Columns: []string{"Enrollment ID", "Student ID", "Status", "Grade", "Semester", "Academic Year", "Enrolled"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(row.ID, 10),
			strconv.FormatInt(row.StudentID, 10),
			string(row.Status),
			deref(row.Grade),
			deref(row.Semester),
			deref(row.AcademicYear),
			row.EnrollmentDate.Format("2006-01-02"),
		})
	}
	return table
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
