package scene

import (
	"cmp"
	"image"
	"slices"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/pkg/geometry"
)

// Extent returns the size of the scene covering every visible layer at its
// current scale: the largest scaled right and bottom edges, never negative.
func Extent(layers []*layerimage.Layer) geometry.Size {
	var ext geometry.Size
	for _, l := range layers {
		if l == nil || !l.Visible {
			continue
		}
		b := l.ScaledBounds()
		ext.Width = max(ext.Width, b.Max.X)
		ext.Height = max(ext.Height, b.Max.Y)
	}
	return ext
}

// Composite draws the visible layers back to front onto an opaque white
// raster the size of their extent. Layers are ordered by depth; equal depths
// keep their order in the slice. Parts of a layer outside the extent are
// clipped and layers entirely outside it are skipped.
func Composite(layers []*layerimage.Layer) (*image.RGBA, geometry.Size) {
	ext := Extent(layers)
	raster := image.NewRGBA(image.Rect(0, 0, ext.Width, ext.Height))
	for i := range raster.Pix {
		raster.Pix[i] = 255
	}

	ordered := make([]*layerimage.Layer, 0, len(layers))
	for _, l := range layers {
		if l != nil && l.Visible {
			ordered = append(ordered, l)
		}
	}
	slices.SortStableFunc(ordered, func(a, b *layerimage.Layer) int {
		return cmp.Compare(a.Depth, b.Depth)
	})

	sceneBox := geometry.NewBox(0, 0, ext.Width, ext.Height)
	for _, l := range ordered {
		compositeLayer(raster, sceneBox, l)
	}
	return raster, ext
}

// compositeLayer blends the part of l that falls inside sceneBox.
func compositeLayer(dst *image.RGBA, sceneBox geometry.Box, l *layerimage.Layer) {
	bounds := l.ScaledBounds()
	clip := bounds.Intersect(sceneBox)
	if clip.Empty() {
		return
	}

	// Offset into the layer planes; non-zero when the layer starts above or
	// left of the scene origin.
	src := clip.Min.Sub(bounds.Min)
	stride := l.ScaledSize().Width
	color, alpha := l.Planes()
	w := clip.Width()

	for y := 0; y < clip.Height(); y++ {
		i := (src.Y+y)*stride + src.X
		row := dst.Pix[dst.PixOffset(clip.Min.X, clip.Min.Y+y):]
		layerimage.BlendRow(row, color[i*3:(i+w)*3], alpha[i:i+w], l.BlendMode)
	}
}

// ScrollRegion returns the scrollable area around a scene of size extent
// shown in a viewport of size view. The scene can be scrolled until half of
// it, or half of the viewport when that is larger, is still visible. All
// edges are whole pixels.
func ScrollRegion(extent, view geometry.Size) geometry.Box {
	xmin, xmax := regionSpan(extent.Width, view.Width)
	ymin, ymax := regionSpan(extent.Height, view.Height)
	return geometry.NewBox(xmin, ymin, xmax, ymax)
}

func regionSpan(content, view int) (lo, hi int) {
	contentHalf := ceilHalf(content)
	viewHalf := ceilHalf(view)
	diff := view - content
	lo = min(-contentHalf-diff, -viewHalf)
	hi = content + max(contentHalf+diff, viewHalf)
	return lo, hi
}

func ceilHalf(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + 1) / 2
}
