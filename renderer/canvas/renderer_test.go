package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/flyer"
	"github.com/ByLCY/studiophone/layout"
)

var bodyFont = layout.FontResource{Name: layout.FontBody, Src: "embed:regular"}

func TestLayoutLinesGreedyWrapsText(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("hello world again", 40, bodyFont, 12, 12*1.2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for _, ln := range lines {
		if ln.Content != "" && (ln.Content[0] == ' ' || ln.Content[len(ln.Content)-1] == ' ') {
			t.Fatalf("line should not carry surrounding spaces: %q", ln.Content)
		}
	}
}

func TestGreedyWrapHonorsNewlines(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("foo\n\nbar", 100, bodyFont, 12, 12*1.2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines including blank, got %d", len(lines))
	}
	if lines[1].Content != "" {
		t.Fatalf("expected middle line to be blank, got %q", lines[1].Content)
	}
}

// TestLineHeightsInvariant 验证：
// 1) 首行 GapBefore == 0；
// 2) 其余行 GapBefore ≈ max(lineHeight - textHeight, 0)；
// 3) 各行的 Height 与 textHeight 一致（渲染器会用字体度量回填）。
func TestLineHeightsInvariant(t *testing.T) {
	r := NewRenderer()
	lineHeight := 12 * 1.5

	content := "longlonglong longlonglong longlonglong longlonglong longlonglong"
	lines, err := r.LayoutLines(content, 120, bodyFont, 12, lineHeight, "")
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines for invariant test, got %d", len(lines))
	}

	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("invalid text height: %g", textHeight)
	}
	wantLeading := math.Max(lineHeight-textHeight, 0)

	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore must be 0, got %g", lines[0].GapBefore)
	}
	const eps = 1e-6
	for i := 1; i < len(lines); i++ {
		if diff := math.Abs(lines[i].GapBefore - wantLeading); diff > eps {
			t.Fatalf("line %d GapBefore mismatch: got=%g want=%g", i, lines[i].GapBefore, wantLeading)
		}
		if diff := math.Abs(lines[i].Height - textHeight); diff > eps {
			t.Fatalf("line %d Height mismatch: got=%g want=%g", i, lines[i].Height, textHeight)
		}
	}
}

// TestGreedyWrapWidthLimit 验证每行宽度不超过限制。
func TestGreedyWrapWidthLimit(t *testing.T) {
	r := NewRenderer()
	limit := 80.0
	for _, wrap := range []string{"anywhere", "break-word"} {
		lines, err := r.LayoutLines("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", limit, bodyFont, 12, 14, wrap)
		if err != nil {
			t.Fatalf("LayoutLines error: %v", err)
		}
		if len(lines) < 2 {
			t.Fatalf("%s: expected the long token to be split", wrap)
		}
		for i, ln := range lines {
			if ln.Width-limit > 1e-6 {
				t.Fatalf("%s: line %d width exceeds limit: width=%g limit=%g", wrap, i, ln.Width, limit)
			}
		}
	}
}

// 当第一行宽度与容器宽度恰好相等且后面紧跟一个显式换行时，不应产生额外的空行。
func TestNoBlankLineWhenEqualWidthThenNewline(t *testing.T) {
	r := NewRenderer()
	first := "SAMPLE-A"
	measured, err := r.LayoutLines(first, 1e6, bodyFont, 12, 14, "")
	if err != nil {
		t.Fatalf("measure error: %v", err)
	}
	limit := measured[0].Width
	if limit <= 0 {
		t.Fatalf("invalid measured width: %g", limit)
	}

	lines, err := r.LayoutLines(first+"\nSAMPLE", limit, bodyFont, 12, 14, "")
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if got := len(lines); got != 2 {
		t.Fatalf("expected 2 lines without blank, got %d", got)
	}
	if lines[0].Content != first || lines[1].Content != "SAMPLE" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestNowrapKeepsSingleLine(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("Estoque Limitado!", 10, bodyFont, 20, 28, "nowrap")
	if err != nil {
		t.Fatalf("LayoutLines error: %v", err)
	}
	if len(lines) != 1 || lines[0].Width <= 10 {
		t.Fatalf("nowrap should keep one overflowing line: %+v", lines)
	}
}

func TestUnknownFontFallsBack(t *testing.T) {
	r := NewRenderer()
	lines, err := r.LayoutLines("abc", 100, layout.FontResource{Name: "X", Src: "embed:missing"}, 12, 14, "")
	if err != nil {
		t.Fatalf("fallback font expected, got %v", err)
	}
	if lines[0].Width <= 0 {
		t.Fatalf("fallback font should measure text")
	}
}

// mapSource 是内存中的图片来源。
type mapSource map[string]image.Image

func (m mapSource) Image(src string) (image.Image, error) {
	if img, ok := m[src]; ok {
		return img, nil
	}
	return nil, errMissing
}

var errMissing = errors.New("missing")

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestRenderProducesScaledPNG(t *testing.T) {
	cat := catalog.Default()
	cfg := flyer.Defaults()
	cfg.Model = "Redmi Note 13"
	cfg.Memory = "128GB / 6GB RAM"
	src := cat.Image(cfg.Brand, cfg.Model)

	slot := layout.ImageSlot{}
	slot.Observe(src)
	slot.MarkLoaded(src)

	r := NewRendererWithOptions(Options{Scale: 1, Images: mapSource{src: solid(40, 80, color.White)}})
	res, err := layout.Compose(cfg, cat, layout.ComposeOptions{Typesetter: r, Images: layout.ImageSlots{layout.SlotProduct: slot}})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	data, err := r.Render(res)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != int(layout.FrameWidth) || b.Dy() != int(layout.FrameHeight) {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestRenderFailsForLoadedButMissingImage(t *testing.T) {
	res := &layout.Result{
		Width: 20, Height: 20,
		Layers: []layout.Layer{{
			Name: "hero.image", Opacity: 1,
			Image: &layout.ImageBox{Src: "x.png", Width: 10, Height: 10, Fit: "contain", Opacity: 1, State: layout.ImageLoaded},
		}},
	}
	r := NewRendererWithOptions(Options{Images: mapSource{}})
	if _, err := r.Render(res); err == nil {
		t.Fatalf("expected error for loaded image that cannot be resolved")
	}

	// 未跟踪的装饰图片缺失时跳过。
	res.Layers[0].Image.State = ""
	if _, err := r.Render(res); err != nil {
		t.Fatalf("decorative image should be skipped: %v", err)
	}
}

func TestRenderRejectsEmptyResult(t *testing.T) {
	r := NewRenderer()
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for zero-sized result")
	}
}

func TestBlend(t *testing.T) {
	from := layout.Color{R: 0, G: 0, B: 0, A: 0}
	to := layout.Color{R: 255, G: 255, B: 255, A: 255}
	if got := blend(from, to, 0); got != from {
		t.Fatalf("t=0 should return from, got %+v", got)
	}
	if got := blend(from, to, 1); got != to {
		t.Fatalf("t=1 should return to, got %+v", got)
	}
	mid := blend(from, to, 0.5)
	if mid.A < 120 || mid.A > 135 {
		t.Fatalf("alpha should interpolate linearly, got %d", mid.A)
	}
}

func TestToPtTreatsCanvasUnitsAsMillimetres(t *testing.T) {
	if got, want := toPt(12), 12*layout.MmToPt; math.Abs(got-want) > 1e-9 {
		t.Fatalf("toPt(12) = %g, want %g", got, want)
	}
}
