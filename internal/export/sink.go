package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"option-data/internal/schema"
)

// Artifact is one encoded byte buffer addressed by object key. The
// destination (object store, message bus, test harness) is a collaborator;
// this core never writes artifacts anywhere itself.
type Artifact struct {
	Key  string
	Data []byte
}

// Uploader stores artifacts in an object store. Bucket names and retry
// policy belong to the implementation.
type Uploader interface {
	Upload(ctx context.Context, a Artifact) error
}

// Publisher emits artifacts to a message bus. Topic management and retry
// policy belong to the implementation.
type Publisher interface {
	Publish(ctx context.Context, payload []byte, topic, key string, headers map[string]string) error
}

// ObjectKey lays out the storage path for one dated artifact:
// historical-option/{shape}/{root}/{yyyy}/{mm}/{dd}/data.{ext}
func ObjectKey(root string, date uint32, shape schema.Shape, ext string) string {
	year := date / 10000
	month := date % 10000 / 100
	day := date % 100
	return fmt.Sprintf("historical-option/%s/%s/%04d/%02d/%02d/data.%s", shape, root, year, month, day, ext)
}

// DirUploader is an Uploader writing artifacts under a local directory,
// used by the CLI and tests. Object keys become relative paths.
type DirUploader struct {
	Dir string
}

func (u DirUploader) Upload(_ context.Context, a Artifact) error {
	path := filepath.Join(u.Dir, filepath.FromSlash(a.Key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
