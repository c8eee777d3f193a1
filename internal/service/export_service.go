package service

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
	"github.com/noah-isme/wellness-admin-console/pkg/export"
	"github.com/noah-isme/wellness-admin-console/pkg/storage"
)

type fileStorage interface {
	Save(relPath string, data []byte) error
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportFile is a rendered snapshot held in memory.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportResult captures a stored export and its signed download link.
type ExportResult struct {
	ID           string    `json:"id"`
	RelativePath string    `json:"-"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	Format       string    `json:"format"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ExportService renders list snapshots and persists them behind signed links.
type ExportService struct {
	storage fileStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. storage and signer may be nil
// when only in-memory rendering is needed.
func NewExportService(store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{storage: store, signer: signer, logger: logger, cfg: cfg}
}

// Render turns the snapshot into a file in the requested format.
func (s *ExportService) Render(desc Descriptor, state listing.State[models.Document], format string) (*ExportFile, error) {
	exporter, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	data, err := exporter.Render(BuildDataset(desc, state))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to render export")
	}
	return &ExportFile{
		Filename:    buildFilename(desc.Name, state.Pagination.CurrentPage, exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        data,
	}, nil
}

// Publish renders the snapshot, stores it and returns a signed download link.
func (s *ExportService) Publish(desc Descriptor, state listing.State[models.Document], format string) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnsupported, "export storage is not configured")
	}
	file, err := s.Render(desc, state, format)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	relPath := path.Join(desc.Name, id, file.Filename)
	if err := s.storage.Save(relPath, file.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to sign export")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("export stored", zap.String("export_id", id), zap.String("resource", desc.Name), zap.Int("rows", len(state.Items)))
	return &ExportResult{
		ID:           id,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       strings.TrimPrefix(path.Ext(file.Filename), "."),
		ExpiresAt:    expiresAt,
	}, nil
}

// Resolve validates a download token and opens the stored file. The caller
// closes the returned file.
func (s *ExportService) Resolve(token string) (*os.File, string, error) {
	if s.storage == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	_, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, err.Error())
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	return f, path.Base(relPath), nil
}

// Cleanup removes exports older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// BuildDataset lays the snapshot out using the resource's display columns.
func BuildDataset(desc Descriptor, state listing.State[models.Document]) export.Dataset {
	cols := make([]export.Column, 0, len(desc.Columns))
	for _, c := range desc.Columns {
		cols = append(cols, export.Column{Key: c.Key, Label: c.Label})
	}
	rows := make([]map[string]string, 0, len(state.Items))
	for _, doc := range state.Items {
		row := make(map[string]string, len(cols))
		for _, c := range cols {
			row[c.Key] = doc.String(c.Key)
		}
		rows = append(rows, row)
	}
	title := desc.Title
	if filters := describeFilters(state.Filters); filters != "" {
		title += " (" + filters + ")"
	}
	return export.Dataset{
		Title:   title,
		Columns: cols,
		Rows:    rows,
		Footer:  PageSummary(state.Pagination),
	}
}

// PageSummary renders "page X of Y (N total)".
func PageSummary(p models.Pagination) string {
	return fmt.Sprintf("page %d of %d (%d total)", p.CurrentPage, max(p.TotalPages, 1), p.TotalCount)
}

func describeFilters(f models.Filters) string {
	active := f.Active()
	if len(active) == 0 {
		return ""
	}
	parts := make([]string, 0, len(active))
	for k, v := range active {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func buildFilename(resource string, page int, ext string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_p%d_%s.%s", sanitizeFilename(resource), max(page, 1), timestamp, ext)
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
