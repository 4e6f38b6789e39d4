package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	StaticURLBase = "/static/uploads"
	publicDir     = "public"
	privateDir    = "private"
	formField     = "file"
)

var allowedMimeTypes = map[Kind]map[string]string{
	KindEquipmentImage: {
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	},
	KindIdentityDocument: {
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/webp":      ".webp",
		"application/pdf": ".pdf",
	},
}

// Service stores files on local disk and records them in the database.
// Public files live under <baseDir>/public and are served at StaticURLBase;
// private files live under <baseDir>/private and get no URL.
type Service struct {
	repo     Repository
	baseDir  string
	maxBytes int64
	logger   zerolog.Logger
}

func NewService(repo Repository, baseDir string, maxBytes int64, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		baseDir:  baseDir,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "upload").Logger(),
	}
}

// PublicDir is the directory to mount under StaticURLBase.
func (s *Service) PublicDir() string {
	return filepath.Join(s.baseDir, publicDir)
}

func (s *Service) UploadEquipmentImage(ctx context.Context, userID, equipmentID uuid.UUID, r *http.Request) (string, error) {
	fh, err := s.formFile(r)
	if err != nil {
		return "", err
	}
	u, err := s.Store(ctx, userID, KindEquipmentImage, &equipmentID, fh)
	if err != nil {
		return "", err
	}
	return *u.FileURL, nil
}

func (s *Service) UploadIdentityDocument(ctx context.Context, userID uuid.UUID, r *http.Request) (uuid.UUID, error) {
	fh, err := s.formFile(r)
	if err != nil {
		return uuid.Nil, err
	}
	u, err := s.Store(ctx, userID, KindIdentityDocument, nil, fh)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func (s *Service) formFile(r *http.Request) (*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(s.maxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	_, fh, err := r.FormFile(formField)
	if err != nil {
		return nil, ErrNoFile
	}
	return fh, nil
}

// Store validates and writes one file.
func (s *Service) Store(ctx context.Context, userID uuid.UUID, kind Kind, equipmentID *uuid.UUID, fh *multipart.FileHeader) (*Upload, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// sniff the type from content, never from the client header
	buf := make([]byte, 512)
	n, _ := file.Read(buf)
	mimeType := strings.Split(http.DetectContentType(buf[:n]), ";")[0]
	ext, ok := allowedMimeTypes[kind][mimeType]
	if !ok {
		return nil, ErrInvalidMimeType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	root := privateDir
	if kind.Public() {
		root = publicDir
	}
	now := time.Now().UTC()
	relDir := fmt.Sprintf("%d/%02d", now.Year(), now.Month())
	absDir := filepath.Join(s.baseDir, root, relDir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	id := uuid.New()
	filename := id.String() + ext
	absPath := filepath.Join(absDir, filename)
	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(absPath)
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	relPath := filepath.ToSlash(filepath.Join(root, relDir, filename))
	u := &Upload{
		ID:           id,
		UserID:       userID,
		Kind:         kind,
		EquipmentID:  equipmentID,
		OriginalName: filepath.Base(fh.Filename),
		FilePath:     relPath,
		MimeType:     mimeType,
		Size:         written,
		CreatedAt:    now,
	}
	if kind.Public() {
		url := StaticURLBase + "/" + strings.TrimPrefix(relPath, publicDir+"/")
		u.FileURL = &url
	}

	if err := s.repo.Create(ctx, u); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to save upload record: %w", err)
	}
	s.logger.Info().Str("upload_id", u.ID.String()).Str("kind", string(kind)).Int64("size", written).Msg("file stored")
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Upload, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the file and its record.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.UserID != userID {
		return ErrNotOwner
	}
	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(u.FilePath))); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("upload_id", id.String()).Msg("remove file failed")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Upload, error) {
	return s.repo.ListByUserID(ctx, userID)
}
