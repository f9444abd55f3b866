// Package covers stores book cover images on disk as resized JPEGs.
package covers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

const (
	coverHeight uint = 300
	jpegQuality      = 80

	// URLPrefix is where the server mounts the cover directory.
	URLPrefix = "/covers/"
)

// ErrBadID is returned for ids that cannot be used as file names.
var ErrBadID = errors.New("invalid cover id")

// Store keeps one cover per catalogue book under
// <root>/<familyID>/<bookID>.jpg.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadID, id)
	}
	return nil
}

// Path returns the file path of a book's cover.
func (s *Store) Path(familyID, bookID string) (string, error) {
	if err := checkID(familyID); err != nil {
		return "", err
	}
	if err := checkID(bookID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, familyID, bookID+".jpg"), nil
}

// URL returns the public URL of a book's cover.
func URL(familyID, bookID string) string {
	return URLPrefix + path.Join(familyID, bookID+".jpg")
}

// Resize decodes an image and re-encodes it as a JPEG no taller than the
// cover height.
func Resize(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dy()) > coverHeight {
		img = resize.Resize(0, coverHeight, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Save resizes imageData, writes it as the book's cover and returns the
// cover URL.
func (s *Store) Save(familyID, bookID string, imageData []byte) (string, error) {
	p, err := s.Path(familyID, bookID)
	if err != nil {
		return "", err
	}
	data, err := Resize(imageData)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("failed to create cover directory: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to store cover: %w", err)
	}
	return URL(familyID, bookID), nil
}

// Delete removes a book's cover. A cover that does not exist counts as
// deleted.
func (s *Store) Delete(familyID, bookID string) error {
	p, err := s.Path(familyID, bookID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
