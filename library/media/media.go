// Package media stores uploaded images in an object store.
package media

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Asset reference to a stored object
type Asset struct {
	// PublicID object key, used to remove the object later
	PublicID string `bson:"public_id" json:"public_id"`
	// URL public url of the object
	URL string `bson:"url" json:"url"`
}

// IsZero reports whether a is empty
func (a Asset) IsZero() bool {
	return a.PublicID == "" && a.URL == ""
}

// Store object store for images
type Store interface {
	// Put saves data under folder and returns the stored asset
	Put(ctx context.Context, folder, filename, contentType string, data []byte) (Asset, error)
	// Remove deletes the object, removing a missing object is not an error
	Remove(ctx context.Context, publicID string) error
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// objectKey build a unique key, the original filename is only kept as a hint
func objectKey(prefix, folder, filename, contentType string) string {
	ext := extByContentType[contentType]
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}

	return strings.TrimPrefix(path.Join(prefix, folder, uuid.NewString()+ext), "/")
}
