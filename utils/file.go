package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// UploadDir is where proof files land when R2 is not configured.
const UploadDir = "uploads"

// allowedProofMime lists the evidence formats the verifier can judge.
var allowedProofMime = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"video/mp4":       true,
	"application/pdf": true,
}

// AllowedProofMime reports whether a content type is accepted as proof.
func AllowedProofMime(contentType string) bool {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return allowedProofMime[strings.TrimSpace(strings.ToLower(contentType))]
}

// ProofObjectKey builds a collision-free storage key from the original
// filename, e.g. "proofs/river-cleanup-3f2a….jpg".
func ProofObjectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := slug.Make(base)
	if name == "" {
		name = "proof"
	}
	return "proofs/" + name + "-" + uuid.NewString() + ext
}

// EnsureUploadDir creates the local uploads directory if it doesn't exist.
func EnsureUploadDir() error {
	return os.MkdirAll(UploadDir, os.ModePerm)
}

// SaveFile writes an uploaded file to the given destination path.
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, file)
	return err
}

// LocalUploadPath maps a storage key into the local uploads directory.
func LocalUploadPath(key string) string {
	return filepath.Join(UploadDir, filepath.FromSlash(key))
}
