package attachment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"solarintake/pkg/types"
)

const (
	DefaultMaxDimension = 4000
	DefaultQuality      = 0.7

	// maxDecodePixels bounds the pixel count a declared image may have,
	// roughly 100MP, so a small compressed file cannot demand a huge buffer.
	maxDecodePixels int64 = 100 * 1000 * 1000

	outputType      = "image/jpeg"
	outputExtension = ".jpg"
)

type Options struct {
	MaxDimension int
	Quality      float64 // 0-1 scale
	Renderer     Renderer
}

// Normalizer turns a selected file into an Attachment. Images are scaled down
// to fit MaxDimension and re-encoded as JPEG; anything else passes through.
type Normalizer struct {
	maxDimension int
	quality      int
	renderer     Renderer
}

func NewNormalizer(opts Options) *Normalizer {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = DefaultQuality
	}
	if opts.Renderer == nil {
		opts.Renderer = defaultRenderer()
	}

	return &Normalizer{
		maxDimension: opts.MaxDimension,
		quality:      int(math.Round(opts.Quality * 100)),
		renderer:     opts.Renderer,
	}
}

func (n *Normalizer) Normalize(ctx context.Context, src Source) (*types.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := readSource(src)
	if err != nil {
		return nil, err
	}

	mimeType := src.Type
	if mimeType == "" {
		mimeType = http.DetectContentType(raw)
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return &types.Attachment{
			Name:    src.Name,
			Type:    mimeType,
			Content: base64.StdEncoding.EncodeToString(raw),
			Size:    int64(len(raw)),
		}, nil
	}

	width, height, err := n.renderer.Size(raw)
	if err != nil {
		return nil, &DecodeError{Name: src.Name, Err: err}
	}
	if err := validateBounds(width, height); err != nil {
		return nil, &DecodeError{Name: src.Name, Err: err}
	}

	width, height = ScaleToFit(width, height, n.maxDimension)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := n.renderer.Render(raw, width, height, n.quality)
	if err != nil {
		return nil, &DecodeError{Name: src.Name, Err: err}
	}

	return &types.Attachment{
		Name:    RenameForOutput(src.Name),
		Type:    outputType,
		Content: base64.StdEncoding.EncodeToString(out),
		Size:    int64(len(out)),
		Width:   width,
		Height:  height,
	}, nil
}

// ScaleToFit returns the dimensions after fitting the longer side to limit,
// keeping the aspect ratio. Dimensions already within limit are unchanged.
func ScaleToFit(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}

	if width > height {
		height = roundDimension(float64(height) * float64(limit) / float64(width))
		width = limit
	} else {
		width = roundDimension(float64(width) * float64(limit) / float64(height))
		height = limit
	}

	return width, height
}

// RenameForOutput swaps the extension of name for the output format's.
func RenameForOutput(name string) string {
	if name == "" {
		return "image" + outputExtension
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + outputExtension
}

func roundDimension(v float64) int {
	d := int(math.Round(v))
	if d < 1 {
		return 1
	}
	return d
}

func validateBounds(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image bounds invalid (%d x %d)", width, height)
	}
	pixels := int64(width) * int64(height)
	if pixels > maxDecodePixels {
		return fmt.Errorf("image pixel count %d exceeds limit %d", pixels, maxDecodePixels)
	}
	return nil
}

func readSource(src Source) ([]byte, error) {
	if src.Open == nil {
		return nil, &ReadError{Name: src.Name, Err: errors.New("source has no content")}
	}

	rc, err := src.Open()
	if err != nil {
		return nil, &ReadError{Name: src.Name, Err: err}
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ReadError{Name: src.Name, Err: err}
	}

	return raw, nil
}
