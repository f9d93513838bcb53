package attachment

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Source is a file selected for an upload slot, before normalization.
type Source struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromBytes(name, mimeType string, data []byte) Source {
	return Source{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPart reads a multipart file part into memory. A part larger than
// limit is drained instead of kept: its Source carries the full size and
// cannot be opened. A limit of zero keeps every part.
func FromPart(part *multipart.Part, limit int64) (Source, error) {
	name := filepath.Base(part.FileName())
	mimeType := part.Header.Get("Content-Type")

	var r io.Reader = part
	if limit > 0 {
		r = io.LimitReader(part, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Source{}, err
	}
	if limit <= 0 || int64(len(data)) <= limit {
		return FromBytes(name, mimeType, data), nil
	}

	rest, err := io.Copy(io.Discard, part)
	if err != nil {
		return Source{}, err
	}

	return Source{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)) + rest,
		Open: func() (io.ReadCloser, error) {
			return nil, fmt.Errorf("%s was not kept, it is over %d bytes", name, limit)
		},
	}, nil
}

// FromPath builds a Source for a local file. The media type comes from the
// extension, falling back to content sniffing.
func FromPath(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		f, err := os.Open(path)
		if err != nil {
			return Source{}, err
		}
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		_ = f.Close()
		mimeType = http.DetectContentType(head[:n])
	}

	return Source{
		Name: filepath.Base(path),
		Type: mimeType,
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
