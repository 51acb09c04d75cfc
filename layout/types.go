package layout

import "github.com/ByLCY/studiophone/flyer"

// 该文件定义合成结果（图层树）与资源描述，供布局计算、渲染与调试 JSON 共用。
// 所有坐标单位为预览框的 CSS 像素（375x667）。

// Result 是一次合成的完整输出：渲染器只需按顺序绘制 Layers，不再做业务判断。
type Result struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Theme     flyer.Theme   `json:"theme"`
	Mode      LayoutMode    `json:"mode"`
	Layers    []Layer       `json:"layers"`
	Price     *PriceSummary `json:"price,omitempty"`
	Resources ResourceSet   `json:"resources"`
}

// Region 标识图层所属区域。
type Region string

const (
	RegionBackground Region = "background"
	RegionHeader     Region = "header"
	RegionHero       Region = "hero"
	RegionPrice      Region = "price"
	RegionCTA        Region = "cta"
	RegionFooter     Region = "footer"
	RegionFrame      Region = "frame"
)

// Animation 是图层的动效标签，由合成阶段决定，渲染静态图时忽略。
type Animation string

const (
	AnimationNone      Animation = ""
	AnimationFloat     Animation = "float"
	AnimationPulse     Animation = "pulse"
	AnimationPulseFast Animation = "pulse-fast"
	AnimationSpin      Animation = "spin"
)

// Layer 是图层树中的一个可视元素。Text/Image/Rect/Circle/Spinner 中恰好一个非空。
type Layer struct {
	Name      string    `json:"name"`
	Region    Region    `json:"region"`
	Z         int       `json:"z"`
	Rotation  float64   `json:"rotation,omitempty"`  // 角度，正值顺时针（与 CSS rotate 一致），绕外接矩形中心旋转
	Placement string    `json:"placement,omitempty"` // CTA 的摆放方式：corner/center
	Opacity   float64   `json:"opacity"`
	Animation Animation `json:"animation,omitempty"`

	Text    *TextBox  `json:"text,omitempty"`
	Image   *ImageBox `json:"image,omitempty"`
	Rect    *Rect     `json:"rect,omitempty"`
	Circle  *Circle   `json:"circle,omitempty"`
	Spinner *Spinner  `json:"spinner,omitempty"`
}

// Bounds 返回图层外接矩形（旋转前）。
func (l Layer) Bounds() (x, y, w, h float64) {
	switch {
	case l.Text != nil:
		return l.Text.X, l.Text.Y, l.Text.Width, l.Text.Height
	case l.Image != nil:
		return l.Image.X, l.Image.Y, l.Image.Width, l.Image.Height
	case l.Rect != nil:
		return l.Rect.X, l.Rect.Y, l.Rect.Width, l.Rect.Height
	case l.Circle != nil:
		return l.Circle.CX - l.Circle.R, l.Circle.CY - l.Circle.R, 2 * l.Circle.R, 2 * l.Circle.R
	case l.Spinner != nil:
		return l.Spinner.CX - l.Spinner.R, l.Spinner.CY - l.Spinner.R, 2 * l.Spinner.R, 2 * l.Spinner.R
	}
	return 0, 0, 0, 0
}

// PriceSummary 是价格区的已解析内容，便于调用方直接读取显示文本。
type PriceSummary struct {
	Condition    string `json:"condition"`
	Installment  bool   `json:"installment"`
	Installments int    `json:"installments,omitempty"`
	Currency     string `json:"currency"`
	Unit         string `json:"unit"`
	Total        string `json:"total,omitempty"`
}

// Display 返回 "R$ 999,00" 形式的主价格文本。
func (p PriceSummary) Display() string {
	return p.Currency + " " + p.Unit
}

// ResourceSet 记录图层引用的字体。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 形如 embed:regular。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style"`
	Family string `json:"family"`
}

// Color 采用 0-255 的 RGBA 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	A int `json:"a"`
}

// WithAlpha 返回替换不透明度（0-1）后的颜色。
func (c Color) WithAlpha(a float64) Color {
	c.A = int(a*255 + 0.5)
	return c
}

// Gradient 是竖直线性渐变，From 在上，To 在下。
type Gradient struct {
	From Color `json:"from"`
	To   Color `json:"to"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	Color      Color      `json:"color"`
	Gradient   *Gradient  `json:"gradient,omitempty"`
	Shadow     *Color     `json:"shadow,omitempty"`
	Lines      []TextLine `json:"lines"`
	Height     float64    `json:"height"`
	Align      string     `json:"align,omitempty"`     // left/center/right（默认 left）
	Transform  string     `json:"transform,omitempty"` // uppercase 时 Lines 已是大写
	Wrap       string     `json:"wrap,omitempty"`      // anywhere(默认)/break-word/nowrap
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ImageState 是图片槽位的加载状态。
type ImageState string

const (
	ImagePending ImageState = "pending"
	ImageLoaded  ImageState = "loaded"
)

// ImageBox 描述图片位置与尺寸；Fit 为 contain 或 cover。
type ImageBox struct {
	Src     string     `json:"src"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	Fit     string     `json:"fit"`
	Anchor  string     `json:"anchor,omitempty"` // contain 时的竖直对齐：top/bottom/center
	Opacity float64    `json:"opacity"`
	State   ImageState `json:"state,omitempty"`
}

// Rect 表示一个可带圆角、描边、填充或渐变的矩形。
type Rect struct {
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Radius      float64   `json:"radius,omitempty"`
	StrokeColor *Color    `json:"strokeColor,omitempty"` // 为空表示不描边
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	FillColor   *Color    `json:"fillColor,omitempty"` // 为空表示不填充
	Gradient    *Gradient `json:"gradient,omitempty"`
}

// Circle 表示一个圆。
type Circle struct {
	CX          float64 `json:"cx"`
	CY          float64 `json:"cy"`
	R           float64 `json:"r"`
	StrokeColor *Color  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Dashed      bool    `json:"dashed,omitempty"`
	FillColor   *Color  `json:"fillColor,omitempty"`
}

// Spinner 是图片加载中的占位指示。
type Spinner struct {
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	R     float64 `json:"r"`
	Color Color   `json:"color"`
}
