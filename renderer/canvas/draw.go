package canvasrenderer

import (
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/canvas"

	"github.com/ByLCY/studiophone/layout"
)

// gradientSteps 是渐变矩形的分条数。
const gradientSteps = 48

var transparent = color.RGBA{}

func (r *Renderer) drawLayer(ctx *canvas.Context, l layout.Layer, resources layout.ResourceSet) error {
	opacity := l.Opacity
	if opacity <= 0 {
		return nil
	}
	if l.Rotation != 0 {
		x, y, w, h := l.Bounds()
		ctx.Push()
		defer ctx.Pop()
		ctx.ComposeView(canvas.Identity.RotateAbout(l.Rotation, x+w/2, y+h/2))
	}

	switch {
	case l.Text != nil:
		return r.drawTextBox(ctx, *l.Text, resolveFontResource(l.Text.Font, resources.Fonts), opacity)
	case l.Image != nil:
		return r.drawImage(ctx, l.Name, *l.Image, opacity)
	case l.Rect != nil:
		drawRect(ctx, *l.Rect, opacity)
	case l.Circle != nil:
		drawCircle(ctx, *l.Circle, opacity)
	case l.Spinner != nil:
		drawSpinner(ctx, *l.Spinner, opacity)
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource, opacity float64) error {
	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	cursorY := tb.Y
	for i, line := range lines {
		cursorY += line.GapBefore
		col := tb.Color
		if tb.Gradient != nil {
			col = blend(tb.Gradient.From, tb.Gradient.To, (float64(i)+0.5)/float64(len(lines)))
		}
		face, err := r.fontFace(fontRes, toPt(tb.FontSize), withOpacity(col, opacity))
		if err != nil {
			return err
		}
		// 基线位置：行顶部加上字体上升部
		baseline := cursorY + face.Metrics().Ascent

		if tb.Shadow != nil {
			shadow, err := r.fontFace(fontRes, toPt(tb.FontSize), withOpacity(*tb.Shadow, opacity))
			if err != nil {
				return err
			}
			ctx.DrawText(anchorX, baseline+2, canvas.NewTextLine(shadow, line.Content, textAlign))
		}
		ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, line.Content, textAlign))

		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}
		cursorY += lineHeight
	}
	return nil
}

func drawRect(ctx *canvas.Context, rc layout.Rect, opacity float64) {
	if rc.Gradient != nil {
		// 竖直渐变按细条绘制，每条取中点颜色。
		step := rc.Height / gradientSteps
		ctx.SetStrokeColor(transparent)
		for i := 0; i < gradientSteps; i++ {
			t := (float64(i) + 0.5) / gradientSteps
			ctx.SetFillColor(colorFromLayout(blend(rc.Gradient.From, rc.Gradient.To, t), opacity))
			ctx.DrawPath(rc.X, rc.Y+float64(i)*step, canvas.Rectangle(rc.Width, step+0.01))
		}
	}
	if rc.FillColor == nil && rc.StrokeColor == nil {
		return
	}
	path := canvas.Rectangle(rc.Width, rc.Height)
	if rc.Radius > 0 {
		path = canvas.RoundedRectangle(rc.Width, rc.Height, rc.Radius)
	}
	applyPaint(ctx, rc.FillColor, rc.StrokeColor, rc.StrokeWidth, opacity)
	ctx.DrawPath(rc.X, rc.Y, path)
}

func drawCircle(ctx *canvas.Context, c layout.Circle, opacity float64) {
	applyPaint(ctx, c.FillColor, c.StrokeColor, c.StrokeWidth, opacity)
	if c.Dashed {
		ctx.SetDashes(0, 6, 4)
		defer ctx.SetDashes(0)
	}
	ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
}

// drawSpinner 画一个静态的圆环，导出时通常已无加载中的图片。
func drawSpinner(ctx *canvas.Context, s layout.Spinner, opacity float64) {
	ctx.SetFillColor(transparent)
	ctx.SetStrokeColor(colorFromLayout(s.Color, opacity))
	ctx.SetStrokeWidth(s.R / 5)
	ctx.SetDashes(0, s.R, s.R/2)
	defer ctx.SetDashes(0)
	ctx.DrawPath(s.CX, s.CY, canvas.Circle(s.R))
}

func applyPaint(ctx *canvas.Context, fill, stroke *layout.Color, width, opacity float64) {
	if fill != nil {
		ctx.SetFillColor(colorFromLayout(*fill, opacity))
	} else {
		ctx.SetFillColor(transparent)
	}
	if stroke != nil && width > 0 {
		ctx.SetStrokeColor(colorFromLayout(*stroke, opacity))
		ctx.SetStrokeWidth(width)
	} else {
		ctx.SetStrokeColor(transparent)
		ctx.SetStrokeWidth(0)
	}
}

// blend 在线性 RGB 空间插值两种颜色，透明度单独线性插值。
func blend(from, to layout.Color, t float64) layout.Color {
	a := colorful.Color{R: float64(from.R) / 255, G: float64(from.G) / 255, B: float64(from.B) / 255}
	b := colorful.Color{R: float64(to.R) / 255, G: float64(to.G) / 255, B: float64(to.B) / 255}
	r, g, bl := a.BlendLinearRgb(b, t).Clamped().RGB255()
	return layout.Color{R: int(r), G: int(g), B: int(bl), A: int(float64(from.A) + (float64(to.A)-float64(from.A))*t + 0.5)}
}

func withOpacity(c layout.Color, opacity float64) layout.Color {
	c.A = int(float64(c.A)*opacity + 0.5)
	return c
}

func colorFromLayout(c layout.Color, opacity float64) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0*opacity)
}
