package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/storage"
)

type archiveFileStorage interface {
	Create(filename string) (*storage.PendingFile, error)
	Copy(w io.Writer, filename string) (int64, error)
}

type archiveSignedURLSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string) (subject, relPath string, expiresAt time.Time, err error)
}

// ArchiveService freezes the first generated copy of an issued document
// and hands out signed links to it.
type ArchiveService struct {
	storage   archiveFileStorage
	signer    archiveSignedURLSigner
	apiPrefix string
}

// NewArchiveService constructs the service. A nil storage or signer
// disables archiving.
func NewArchiveService(files archiveFileStorage, signer archiveSignedURLSigner, apiPrefix string) *ArchiveService {
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &ArchiveService{storage: files, signer: signer, apiPrefix: strings.TrimRight(apiPrefix, "/")}
}

// Enabled reports whether documents are archived.
func (s *ArchiveService) Enabled() bool {
	return s != nil && s.storage != nil && s.signer != nil
}

func archivePath(schoolID, documentID string) string {
	return schoolID + "/" + documentID + ".pdf"
}

// Begin opens the archive copy of a document. The caller commits it once
// the PDF was written completely.
func (s *ArchiveService) Begin(schoolID, documentID string) (*storage.PendingFile, error) {
	if !s.Enabled() {
		return nil, errors.New("archive disabled")
	}
	return s.storage.Create(archivePath(schoolID, documentID))
}

// URL returns the signed download link of an archived document.
func (s *ArchiveService) URL(schoolID, documentID string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("archive disabled")
	}
	token, _, err := s.signer.Generate(documentID, archivePath(schoolID, documentID))
	if err != nil {
		return "", fmt.Errorf("sign archive url: %w", err)
	}
	return fmt.Sprintf("%s/documents/archive/%s", s.apiPrefix, token), nil
}

// Serve copies the archived document referenced by token into w. The
// token must point inside the caller's school.
func (s *ArchiveService) Serve(w io.Writer, schoolID, token string) (string, error) {
	if !s.Enabled() {
		return "", appErrors.Clone(appErrors.ErrNotFound, "document archive disabled")
	}
	documentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	if relPath != archivePath(schoolID, documentID) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if _, err := s.storage.Copy(w, relPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "archived document not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read archived document")
	}
	return documentID, nil
}
