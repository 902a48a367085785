package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes complaint and completion photos to local disk under a
// date/session-partitioned layout:
//
//	<root>/complaints/YYYY/MM/DD/<session>/<uuid>.<ext>
//	<root>/completions/YYYY/MM/DD/<ticket>/<uuid>.<ext>
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Store{root: root}, nil
}

// Ext derives a safe storage extension from the uploaded filename. Anything
// missing or suspicious falls back to ".jpg".
func Ext(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ".jpg"
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ".jpg"
		}
	}
	return ext
}

func (s *Store) SaveComplaintImage(sessionID uuid.UUID, ext string, data []byte) (string, error) {
	return s.save("complaints", sessionID.String(), ext, data)
}

func (s *Store) SaveCompletionImage(ticketID uuid.UUID, ext string, data []byte) (string, error) {
	return s.save("completions", ticketID.String(), ext, data)
}

func (s *Store) save(kind, partition, ext string, data []byte) (string, error) {
	if ext == "" {
		ext = ".jpg"
	}
	now := time.Now()
	rel := filepath.Join(
		kind,
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		partition,
		uuid.NewString()+ext,
	)
	abs := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return rel, nil
}

func (s *Store) Read(rel string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, rel))
}

// Delete removes the backing file; a missing file is not an error, the row
// it belonged to is already going away.
func (s *Store) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
