package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/internal/page"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
	"github.com/noah-isme/sma-adp-console/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	MaxRows   int
}

// ExportDownload is a resolved download token.
type ExportDownload struct {
	ID          string
	File        *os.File
	Filename    string
	ContentType string
	SizeBytes   int64
	ExpiresAt   time.Time
}

// ExportService renders selected rows, stores the file and hands back a
// signed download URL.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewExportService constructs an ExportService.
func NewExportService(storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Export renders req.Rows with the requested columns and stores the result.
func (s *ExportService) Export(ctx context.Context, req page.ExportRequest) (*models.ExportArtifact, error) {
	if len(req.Rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to export")
	}
	if s.cfg.MaxRows > 0 && len(req.Rows) > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export is limited to %d rows", s.cfg.MaxRows))
	}
	dataset, err := export.BuildDataset(req.Rows, req.Columns)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = export.FormatCSV
	}
	var payload []byte
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, s.title(req))
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not render export")
	}

	id := uuid.NewString()
	filename := s.buildFilename(req.Page, format)
	relPath, err := s.storage.Save(path.Join(sanitizeFilename(req.Page), id, filename), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not store export")
	}

	token, ticket, err := s.signer.Sign(id, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not sign export")
	}
	s.logger.Info("export stored",
		zap.String("page", req.Page),
		zap.String("export_id", id),
		zap.String("format", string(format)),
		zap.Int("rows", len(req.Rows)),
	)

	return &models.ExportArtifact{
		ID:        id,
		Filename:  filename,
		Format:    string(format),
		Rows:      len(req.Rows),
		Token:     token,
		URL:       s.downloadURL(token),
		ExpiresAt: ticket.ExpiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Ticket, error) {
	return s.signer.Verify(token, allowExpired)
}

// Resolve validates token and opens the stored file. The caller closes File.
func (s *ExportService) Resolve(token string) (*ExportDownload, error) {
	ticket, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export link is invalid or expired")
	}
	file, err := s.storage.Open(ticket.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not read export")
	}
	format, err := export.ParseFormat(strings.TrimPrefix(path.Ext(ticket.Path), "."))
	if err != nil {
		format = export.FormatCSV
	}
	return &ExportDownload{
		ID:          ticket.ExportID,
		File:        file,
		Filename:    path.Base(ticket.Path),
		ContentType: format.ContentType(),
		SizeBytes:   info.Size(),
		ExpiresAt:   ticket.ExpiresAt,
	}, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup runs Cleanup on the given cron schedule until StopCleanup.
// An empty schedule disables the job.
func (s *ExportService) StartCleanup(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	engine := cron.New(cron.WithLocation(time.UTC))
	if _, err := engine.AddFunc(schedule, s.runCleanup); err != nil {
		return fmt.Errorf("schedule export cleanup %q: %w", schedule, err)
	}
	engine.Start()
	s.cron = engine
	s.logger.Info("export cleanup scheduled", zap.String("schedule", schedule))
	return nil
}

// StopCleanup stops the cleanup job and waits for a running pass.
func (s *ExportService) StopCleanup() {
	s.mu.Lock()
	engine := s.cron
	s.cron = nil
	s.mu.Unlock()
	if engine != nil {
		<-engine.Stop().Done()
	}
}

func (s *ExportService) runCleanup() {
	deleted, err := s.Cleanup(0)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
}

func (s *ExportService) title(req page.ExportRequest) string {
	title := req.Title
	if title == "" {
		title = req.Page
	}
	return fmt.Sprintf("%s export %s", title, s.now().UTC().Format("2006-01-02 15:04"))
}

func (s *ExportService) buildFilename(pageName string, format export.Format) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(pageName), timestamp, format)
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/%s", prefix, token)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
