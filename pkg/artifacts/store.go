// Package artifacts stores resumes and job descriptions on the local file system and
// hands out time-limited signed download URLs for them.
package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/talentpivot/talentpivot/pkg/models"
)

const (
	// MaxFileSize bounds a single stored file.
	MaxFileSize = 10 << 20

	// DefaultURLTTL is the lifetime of a signed URL when none is given.
	DefaultURLTTL = 15 * time.Minute

	metaSuffix = ".meta.json"
)

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds the maximum size")
	ErrNotDocument  = errors.New("file is not a supported document (PDF, DOC, DOCX, RTF or TXT)")
	ErrNotFound     = errors.New("artifact not found")
	ErrInvalidKey   = errors.New("invalid artifact key")
	ErrInvalidToken = errors.New("invalid or expired artifact token")
)

// IsRejectedUpload reports whether err means the uploaded content itself was unacceptable.
func IsRejectedUpload(err error) bool {
	return errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrFileTooLarge) || errors.Is(err, ErrNotDocument)
}

// documentTypes are the MIME types accepted as documents.
var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/rtf",
	"text/plain",
}

// DetectDocument sniffs data and returns its MIME type when it is exactly one of the
// supported document types.
func DetectDocument(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	detected := mimetype.Detect(data)

	// Only the detected type counts: text formats such as HTML or SVG descend from
	// text/plain and must not pass as plain text.
	for _, accepted := range documentTypes {
		if detected.Is(accepted) {
			return detected, nil
		}
	}

	return nil, fmt.Errorf("%w: detected %s", ErrNotDocument, detected.String())
}

// FileStore keeps artifacts under root/<kind>/ with a metadata sidecar per file.
type FileStore struct {
	root   string
	signer *URLSigner
}

// NewFileStore creates the store rooted at root.
func NewFileStore(root string, signer *URLSigner) (*FileStore, error) {
	root = filepath.Clean(strings.Replace(root, "file://", "", 1))

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact root %s: %w", root, err)
	}

	return &FileStore{root: root, signer: signer}, nil
}

// Put validates data as a document and stores it under a fresh key.
func (s *FileStore) Put(_ context.Context, kind models.ArtifactKind, fileName string, data []byte) (models.Artifact, error) {
	if len(data) > MaxFileSize {
		return models.Artifact{}, ErrFileTooLarge
	}

	mime, err := DetectDocument(data)
	if err != nil {
		return models.Artifact{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.Artifact{}, fmt.Errorf("failed to generate artifact id: %w", err)
	}

	artifact := models.Artifact{
		Key:         string(kind) + "/" + id.String() + mime.Extension(),
		FileName:    filepath.Base(strings.TrimSpace(fileName)),
		ContentType: mime.String(),
		Size:        int64(len(data)),
	}

	path, err := s.path(artifact.Key)
	if err != nil {
		return models.Artifact{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to create artifact directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to write artifact %s: %w", artifact.Key, err)
	}

	meta, err := json.Marshal(artifact)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("failed to marshal artifact metadata: %w", err)
	}

	if err := os.WriteFile(path+metaSuffix, meta, 0600); err != nil {
		_ = os.Remove(path)

		return models.Artifact{}, fmt.Errorf("failed to write artifact metadata %s: %w", artifact.Key, err)
	}

	return artifact, nil
}

// Open returns the content and metadata of the artifact stored under key.
func (s *FileStore) Open(_ context.Context, key string) (io.ReadCloser, models.Artifact, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, models.Artifact{}, err
	}

	var artifact models.Artifact

	meta, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.Artifact{}, ErrNotFound
		}

		return nil, models.Artifact{}, fmt.Errorf("failed to read artifact metadata %s: %w", key, err)
	}

	if err := json.Unmarshal(meta, &artifact); err != nil {
		return nil, models.Artifact{}, fmt.Errorf("failed to unmarshal artifact metadata %s: %w", key, err)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.Artifact{}, ErrNotFound
		}

		return nil, models.Artifact{}, fmt.Errorf("failed to open artifact %s: %w", key, err)
	}

	return file, artifact, nil
}

// Delete removes an artifact. Deleting a missing artifact is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	for _, p := range []string{path, path + metaSuffix} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete artifact %s: %w", key, err)
		}
	}

	return nil
}

// SignedURL returns a download URL for key valid for ttl, and when it expires.
func (s *FileStore) SignedURL(key string, ttl time.Duration) (string, time.Time, error) {
	if _, err := s.path(key); err != nil {
		return "", time.Time{}, err
	}

	return s.signer.URL(key, ttl)
}

// Verify checks that token grants access to key.
func (s *FileStore) Verify(key, token string) error {
	return s.signer.Verify(key, token)
}

// HealthCheck verifies the root directory is still present.
func (s *FileStore) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); err != nil {
		return fmt.Errorf("artifact root unavailable: %w", err)
	}

	return nil
}

// path maps key to a file under root, rejecting keys outside the known kinds.
func (s *FileStore) path(key string) (string, error) {
	kind, name, ok := strings.Cut(key, "/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidKey
	}

	switch models.ArtifactKind(kind) {
	case models.ArtifactKindResume, models.ArtifactKindJobDescription:
	default:
		return "", ErrInvalidKey
	}

	return filepath.Join(s.root, kind, name), nil
}
