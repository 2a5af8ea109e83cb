// Package scene maintains the ordered stack of image layers and composites
// it into a single raster.
package scene

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"slices"

	layerimage "layer-canvas/internal/image"
	"layer-canvas/pkg/geometry"
)

// LayerInfo carries optional layer property edits. Nil fields are left
// unchanged.
type LayerInfo struct {
	Name          *string
	PositionFixed *bool
	Visible       *bool
}

// Stack owns the layers of one canvas and the raster composited from them.
// Every mutator that changes visible output recomposites before returning.
// A Stack is not safe for concurrent use.
type Stack struct {
	layers   []*layerimage.Layer // Insertion order
	ids      idAllocator
	selected int
	scale    float64

	raster *image.RGBA
	extent geometry.Size
}

// NewStack creates an empty stack at scale 1.
func NewStack() *Stack {
	s := &Stack{selected: -1, scale: 1.0}
	s.Recompute()
	return s
}

// Recompute rebuilds the raster and extent from the current layers.
func (s *Stack) Recompute() (*image.RGBA, geometry.Size) {
	s.raster, s.extent = Composite(s.layers)
	return s.raster, s.extent
}

// Raster returns the last composited raster.
func (s *Stack) Raster() *image.RGBA {
	return s.raster
}

// Extent returns the size of the last composited raster.
func (s *Stack) Extent() geometry.Size {
	return s.extent
}

// Scale returns the scale applied to every layer.
func (s *Stack) Scale() float64 {
	return s.scale
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// Layers returns the layers in insertion order.
func (s *Stack) Layers() []*layerimage.Layer {
	return slices.Clone(s.layers)
}

// ByDepth returns the layers ordered top-most first, the order a layer list
// shows them in.
func (s *Stack) ByDepth() []*layerimage.Layer {
	out := slices.Clone(s.layers)
	slices.SortStableFunc(out, func(a, b *layerimage.Layer) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	return out
}

// Layer returns the layer with the given id, or nil.
func (s *Stack) Layer(id int) *layerimage.Layer {
	for _, l := range s.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// nextName returns the default name for a layer about to be added.
func (s *Stack) nextName() string {
	if len(s.layers) == 0 {
		return "Background"
	}
	return fmt.Sprintf("Layer %d", len(s.layers)+1)
}

// nextDepth returns a depth above every existing layer.
func (s *Stack) nextDepth() int {
	if len(s.layers) == 0 {
		return 0
	}
	d := s.layers[0].Depth
	for _, l := range s.layers[1:] {
		d = max(d, l.Depth)
	}
	return d + 1
}

// AddLayer adds buf as a new top-most layer, selects it and recomposites.
func (s *Stack) AddLayer(buf *image.NRGBA) (int, error) {
	id := s.ids.acquire()
	l, err := layerimage.NewLayer(id, buf, s.scale)
	if err != nil {
		s.ids.release(id)
		return 0, fmt.Errorf("failed to create layer: %w", err)
	}
	l.Name = s.nextName()
	l.Depth = s.nextDepth()

	s.layers = append(s.layers, l)
	s.selected = id
	slog.Debug("layer added", "id", id, "name", l.Name, "width", l.Width(), "height", l.Height())

	s.Recompute()
	return id, nil
}

// AddPixels adds a layer from raw 1, 3 or 4 channel pixel data.
func (s *Stack) AddPixels(width, height, channels int, pix []uint8) (int, error) {
	buf, err := layerimage.NewBuffer(width, height, channels, pix)
	if err != nil {
		return 0, fmt.Errorf("failed to create layer: %w", err)
	}
	return s.AddLayer(buf)
}

// UpdateImage replaces the image of layer id and recomposites. Unknown ids
// are ignored.
func (s *Stack) UpdateImage(id int, buf *image.NRGBA) error {
	l := s.Layer(id)
	if l == nil {
		return nil
	}
	if err := l.UpdateImage(buf); err != nil {
		return fmt.Errorf("failed to update layer %d: %w", id, err)
	}
	s.Recompute()
	return nil
}

// UpdateLayerInfo applies the non-nil fields of info to layer id. Changing
// visibility recomposites. Unknown ids are ignored.
func (s *Stack) UpdateLayerInfo(id int, info LayerInfo) {
	l := s.Layer(id)
	if l == nil {
		return
	}
	if info.Name != nil {
		l.Name = *info.Name
	}
	if info.PositionFixed != nil {
		l.PositionFixed = *info.PositionFixed
	}
	if info.Visible != nil && *info.Visible != l.Visible {
		l.Visible = *info.Visible
		s.Recompute()
	}
}

// SetName renames layer id.
func (s *Stack) SetName(id int, name string) {
	s.UpdateLayerInfo(id, LayerInfo{Name: &name})
}

// SetPositionFixed locks or unlocks the position of layer id.
func (s *Stack) SetPositionFixed(id int, fixed bool) {
	s.UpdateLayerInfo(id, LayerInfo{PositionFixed: &fixed})
}

// SetVisible shows or hides layer id; triggers a recomposite.
func (s *Stack) SetVisible(id int, visible bool) {
	s.UpdateLayerInfo(id, LayerInfo{Visible: &visible})
}

// SetDepth changes the draw order key of layer id; triggers a recomposite.
func (s *Stack) SetDepth(id int, depth int) {
	l := s.Layer(id)
	if l == nil || l.Depth == depth {
		return
	}
	l.Depth = depth
	s.Recompute()
}

// SetBlendMode changes the blend mode of layer id; triggers a recomposite.
// Unsupported modes are rejected before the layer is touched.
func (s *Stack) SetBlendMode(id int, mode layerimage.BlendMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	l := s.Layer(id)
	if l == nil || l.BlendMode == mode {
		return nil
	}
	l.BlendMode = mode
	s.Recompute()
	return nil
}

// UpdateLayer sets depth, blend mode and visibility of layer id in one step
// and recomposites once.
func (s *Stack) UpdateLayer(id int, depth int, mode layerimage.BlendMode, visible bool) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	l := s.Layer(id)
	if l == nil {
		return nil
	}
	l.Depth = depth
	l.BlendMode = mode
	l.Visible = visible
	s.Recompute()
	return nil
}

// RemoveLayer deletes layer id, releases its id for reuse and recomposites.
// Removing the selected layer clears the selection.
func (s *Stack) RemoveLayer(id int) {
	i := slices.IndexFunc(s.layers, func(l *layerimage.Layer) bool { return l.ID == id })
	if i < 0 {
		return
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	s.ids.release(id)
	if s.selected == id {
		s.selected = -1
	}
	slog.Debug("layer removed", "id", id)
	s.Recompute()
}

// Select makes layer id the target of move and nudge edits. Unknown ids
// clear the selection.
func (s *Stack) Select(id int) {
	if s.Layer(id) == nil {
		s.selected = -1
		return
	}
	s.selected = id
}

// ClearSelection deselects every layer.
func (s *Stack) ClearSelection() {
	s.selected = -1
}

// Selected returns the selected layer, or nil.
func (s *Stack) Selected() *layerimage.Layer {
	if s.selected < 0 {
		return nil
	}
	return s.Layer(s.selected)
}

// Move offsets the position of layer id by delta scene pixels and
// recomposites. Locked layers and unknown ids are left alone; the result
// reports whether the layer moved.
func (s *Stack) Move(id int, delta geometry.Int2) bool {
	l := s.Layer(id)
	if l == nil || l.PositionFixed || delta.IsZero() {
		return false
	}
	l.Position = l.Position.Add(delta)
	s.Recompute()
	return true
}

// ApplyScale rescales every layer and recomposites.
func (s *Stack) ApplyScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %v", layerimage.ErrInvalidScale, scale)
	}
	s.scale = scale
	for _, l := range s.layers {
		if err := l.ApplyScale(scale); err != nil {
			return fmt.Errorf("failed to scale layer %d: %w", l.ID, err)
		}
	}
	s.Recompute()
	return nil
}

// Thumbnail returns the layer panel preview of layer id, or nil.
func (s *Stack) Thumbnail(id int, width, height int) *image.RGBA {
	l := s.Layer(id)
	if l == nil {
		return nil
	}
	return layerimage.Thumbnail(l.Image(), width, height)
}
