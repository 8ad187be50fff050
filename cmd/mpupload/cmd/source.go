package cmd

import (
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// source is a local file loaded for upload.
type source struct {
	name        string
	data        []byte
	contentType string
}

// sourcePath makes p absolute. The source filesystem is rooted at "/", so a
// relative argument has to be resolved against the working directory first.
func sourcePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", p, err)
	}
	return abs, nil
}

// readSource loads the file at p from fsys and detects its content type.
func readSource(fsys fs.Filesystem, p string) (*source, error) {
	info, err := fsys.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", p)
	}

	file, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	return &source{
		name:        filepath.Base(p),
		data:        data,
		contentType: detectContentType(p, data),
	}, nil
}

// detectContentType sniffs data, falling back to the file extension when the
// content is not recognized.
func detectContentType(p string, data []byte) string {
	if mt := mimetype.Detect(data); mt != nil && mt.String() != "application/octet-stream" {
		return mt.String()
	}
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// objectKey returns key when set. Otherwise it derives the key from the file
// name, prefixed with the date and a random id when unique is set.
func objectKey(key, name string, unique bool, now time.Time) string {
	if key != "" {
		return key
	}
	if !unique {
		return name
	}
	return path.Join(now.UTC().Format("2006/01/02"), uuid.NewString()+"-"+name)
}
