package images

import (
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/WillSuttie/MvcBean/models"
	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored images are served.
const PublicPrefix = "/images/"

// ErrInvalidType is returned for uploads whose extension is not an allowed image type.
var ErrInvalidType = errors.New("invalid file type, only JPG, PNG, and GIF files are allowed")

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Upload is a raw image payload together with the client-supplied file name.
type Upload struct {
	Filename string
	Data     []byte
}

// Empty reports whether no image was supplied.
func (u *Upload) Empty() bool {
	return u == nil || len(u.Data) == 0
}

// AllowedExtensions lists the accepted image extensions, e.g. for error messages.
func AllowedExtensions() string {
	return strings.Join(allowedExtensions, ", ")
}

// HasAllowedExtension reports whether p ends in an allowed image extension.
// The comparison is case-insensitive.
func HasAllowedExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// StorageName builds the file name for an image uploaded for a bean on
// saleDate: {yyyy-MM-dd}_{originalBaseName}{ext}, with ext lower-cased.
// Any directory part of the original name is dropped.
func StorageName(saleDate models.Date, originalName string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if !HasAllowedExtension(base) {
		return "", ErrInvalidType
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return saleDate.String() + "_" + stem + strings.ToLower(ext), nil
}

// UniqueStorageName derives an alternative to name by appending a short
// random suffix to its stem, e.g. 2025-01-01_beans_1a2b3c4d.png.
func UniqueStorageName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + uuid.NewString()[:8] + ext
}

// PublicPath returns the URL path of a stored image name.
func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPublicPath returns the storage name referenced by a public image path.
func NameFromPublicPath(p string) string {
	return path.Base(strings.TrimPrefix(p, PublicPrefix))
}
