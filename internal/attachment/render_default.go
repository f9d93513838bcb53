//go:build !vips

package attachment

func defaultRenderer() Renderer {
	return StdRenderer{}
}
