//go:build vips

package attachment

import "github.com/h2non/bimg"

// VipsRenderer renders through libvips. Build with -tags vips.
type VipsRenderer struct{}

func defaultRenderer() Renderer {
	return VipsRenderer{}
}

func (VipsRenderer) Size(raw []byte) (int, int, error) {
	meta, err := bimg.NewImage(raw).Metadata()
	if err != nil {
		return 0, 0, err
	}
	if transposed(meta.Orientation) {
		return meta.Size.Height, meta.Size.Width, nil
	}
	return meta.Size.Width, meta.Size.Height, nil
}

func (VipsRenderer) Render(raw []byte, width, height, quality int) ([]byte, error) {
	return bimg.NewImage(raw).Process(bimg.Options{
		Width:         width,
		Height:        height,
		Force:         true,
		Quality:       quality,
		Type:          bimg.JPEG,
		Background:    bimg.Color{R: 255, G: 255, B: 255},
		StripMetadata: true,
	})
}
