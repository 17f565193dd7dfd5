package media

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
)

// ObjectPrefix is where uploaded post images live in the store.
const ObjectPrefix = "posts/"

// Store persists uploaded images and hands back the object key that
// gets recorded on the post.
type Store interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey derives a collision-free key under the posts/ prefix,
// keeping the original file extension.
func ObjectKey(filename string) string {
	return fmt.Sprintf("%s%s%s", ObjectPrefix, uuid.NewString(), path.Ext(filename))
}
