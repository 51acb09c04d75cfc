package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ByLCY/studiophone/catalog"
	"github.com/ByLCY/studiophone/flyer"
	"github.com/ByLCY/studiophone/pricing"
)

// 预览框尺寸（CSS 像素，9:16 近似）。
const (
	FrameWidth  = 375.0
	FrameHeight = 667.0
	BorderWidth = 6.0
)

const (
	DefaultCurrency    = "R$"
	DefaultProductName = "MODELO"
	NoImageLabel       = "Sem Imagem"
	WatermarkText      = "BLACK FRIDAY"
)

// CTA 摆放方式。
const (
	PlacementCorner = "corner"
	PlacementCenter = "center"
)

// 图层叠放层级，数值越大越靠上。
const (
	zBackground = 0
	zWatermark  = 1
	zSpinner    = 5
	zHero       = 10
	zBadge      = 20
	zCTA        = 30
	zFooter     = 30
	zFooterLogo = 40
	zHeader     = 50
	zFrame      = 100
)

// ErrNoCatalog 在调用方未提供产品目录时返回。
var ErrNoCatalog = errors.New("layout: 缺少产品目录")

// frame 是去掉边框后的内容区。
type frame struct{ x, y, w, h float64 }

func (f frame) right() float64  { return f.x + f.w }
func (f frame) bottom() float64 { return f.y + f.h }

// area 是竖直方向上的一段可用区域。
type area struct{ x, w, top, bottom float64 }

// ProductImage 返回主图来源：自定义图片优先，否则取目录中的型号图片。
func ProductImage(cfg flyer.Config, cat *catalog.Catalog) string {
	if cfg.CustomProductImage != "" {
		return cfg.CustomProductImage
	}
	if cat == nil {
		return ""
	}
	return cat.Image(cfg.Brand, cfg.Model)
}

// Compose 将配置映射为按 Z 排序的图层树。相同输入总是得到相同输出，函数不修改任何参数。
func Compose(cfg flyer.Config, cat *catalog.Catalog, opts ComposeOptions) (*Result, error) {
	if cat == nil {
		return nil, ErrNoCatalog
	}
	mode := ModeFor(cfg.ShowPrice)
	pal := paletteFor(cfg.Theme)
	c := &composer{ts: opts.Typesetter, fonts: defaultFonts()}
	f := frame{x: BorderWidth, y: BorderWidth, w: FrameWidth - 2*BorderWidth, h: FrameHeight - 2*BorderWidth}

	c.background(cfg, cat)
	if err := c.watermark(cfg, f); err != nil {
		return nil, fmt.Errorf("水印合成失败: %w", err)
	}
	headerBottom, err := c.header(cfg, cat, f, mode)
	if err != nil {
		return nil, fmt.Errorf("页眉合成失败: %w", err)
	}

	content := area{x: f.x + 16, w: f.w - 32, top: headerBottom + 8, bottom: f.bottom() - 96}
	var summary *PriceSummary
	hero := content
	if mode == PriceVisible {
		var top float64
		summary, top, err = c.priceRegion(cfg, content, pal, opts)
		if err != nil {
			return nil, fmt.Errorf("价格区合成失败: %w", err)
		}
		hero.bottom = top
	}
	if err := c.hero(cfg, cat, opts.Images, hero, mode, pal); err != nil {
		return nil, fmt.Errorf("主图区合成失败: %w", err)
	}
	if err := c.cta(cfg, f, mode, pal); err != nil {
		return nil, fmt.Errorf("CTA 合成失败: %w", err)
	}
	if err := c.footer(cfg, f, opts.Images); err != nil {
		return nil, fmt.Errorf("页脚合成失败: %w", err)
	}
	c.border(pal)

	sort.SliceStable(c.layers, func(i, j int) bool { return c.layers[i].Z < c.layers[j].Z })

	return &Result{
		Width:     FrameWidth,
		Height:    FrameHeight,
		Theme:     cfg.Theme,
		Mode:      mode,
		Layers:    c.layers,
		Price:     summary,
		Resources: ResourceSet{Fonts: c.fonts},
	}, nil
}

func (c *composer) background(cfg flyer.Config, cat *catalog.Catalog) {
	if bg := cat.Background(cfg.Theme); bg != "" {
		c.add(Layer{
			Name: "background", Region: RegionBackground, Z: zBackground,
			Image: &ImageBox{Src: bg, X: 0, Y: 0, Width: FrameWidth, Height: FrameHeight, Fit: "cover", Opacity: 1},
		})
		return
	}
	c.add(Layer{
		Name: "background", Region: RegionBackground, Z: zBackground,
		Rect: &Rect{X: 0, Y: 0, Width: FrameWidth, Height: FrameHeight, FillColor: ptr(colorBlack)},
	})
}

// watermark 只属于 Black Friday 主题。
func (c *composer) watermark(cfg flyer.Config, f frame) error {
	if cfg.Theme != flyer.ThemeBlackFriday {
		return nil
	}
	spec := textSpec{font: FontDisplay, size: 128, leading: LeadingNone, color: colorWhite, align: "center", wrap: "nowrap"}
	w, err := c.measure(WatermarkText, spec)
	if err != nil {
		return err
	}
	tb, err := c.composeTextBox(WatermarkText, f.x+(f.w-w)/2, f.y+(f.h-128)/2, w, spec)
	if err != nil {
		return err
	}
	c.add(Layer{Name: "watermark", Region: RegionBackground, Z: zWatermark, Rotation: -12, Opacity: 0.1, Text: &tb})
	return nil
}

// header 返回页眉底边的 y 坐标。
func (c *composer) header(cfg flyer.Config, cat *catalog.Catalog, f frame, mode LayoutMode) (float64, error) {
	const logoW, logoH = 256.0, 112.0
	lx, ly := f.x+(f.w-logoW)/2, f.y-40
	anim := AnimationNone
	if cfg.EnableAnimations && mode == PriceVisible {
		anim = AnimationFloat
	}
	if logo := cat.ThemeLogo(cfg.Theme); logo != "" {
		c.add(Layer{
			Name: "header.logo", Region: RegionHeader, Z: zHeader, Animation: anim,
			Image: &ImageBox{Src: logo, X: lx, Y: ly, Width: logoW, Height: logoH, Fit: "contain", Anchor: "center", Opacity: 1},
		})
	}

	spec := textSpec{font: FontBold, size: 12, leading: 1.33, color: colorWhite, wrap: "nowrap"}
	tw, err := c.measure(cfg.Instagram, spec)
	if err != nil {
		return 0, err
	}
	const padX, icon, gap, bh = 12.0, 16.0, 4.0, 24.0
	bw := padX*2 + icon + gap + tw
	bx, by := f.x+(f.w-bw)/2, ly+logoH-20
	c.add(Layer{
		Name: "header.instagram.badge", Region: RegionHeader, Z: zHeader,
		Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: bh / 2, FillColor: ptr(colorBlack.WithAlpha(0.3))},
	})
	c.add(Layer{
		Name: "header.instagram.icon", Region: RegionHeader, Z: zHeader,
		Circle: &Circle{CX: bx + padX + icon/2, CY: by + bh/2, R: icon / 2, FillColor: ptr(colorBlue400), StrokeColor: ptr(colorWhite), StrokeWidth: 1.5},
	})
	tb, err := c.composeTextBox(cfg.Instagram, bx+padX+icon+gap, 0, tw, spec)
	if err != nil {
		return 0, err
	}
	tb.Y = by + (bh-tb.Height)/2
	c.add(Layer{Name: "header.instagram", Region: RegionHeader, Z: zHeader, Text: &tb})
	return by + bh, nil
}

// priceRegion 自下而上堆叠价格区，返回价格摘要与区域顶边。
func (c *composer) priceRegion(cfg flyer.Config, a area, pal palette, opts ComposeOptions) (*PriceSummary, float64, error) {
	quote := opts.Calculator.Calculate(pricing.Input{
		Price:             cfg.Price,
		PaymentCondition:  cfg.PaymentCondition,
		Installments:      cfg.Installments,
		TotalWithInterest: cfg.TotalWithInterest,
	})
	fmtr := opts.Formatter
	if fmtr == nil {
		fmtr = pricing.NewFormatter("")
	}
	currency := opts.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	summary := &PriceSummary{
		Condition:   cfg.PaymentCondition,
		Installment: quote.Installment,
		Currency:    currency,
		Unit:        fmtr.Format(quote.Unit),
	}

	y := a.bottom
	if quote.Installment {
		summary.Installments = quote.Installments
		summary.Total = fmtr.Format(quote.Total)

		spec := textSpec{font: FontBold, size: 14, leading: 1.43, color: colorWhite.WithAlpha(0.9), align: "center", wrap: "nowrap"}
		label := fmt.Sprintf("Total: %s %s", currency, summary.Total)
		tw, err := c.measure(label, spec)
		if err != nil {
			return nil, 0, err
		}
		bw, bh := tw+24, spec.leading.Resolve(spec.size)+4
		bx, by := a.x+(a.w-bw)/2, y-bh
		c.add(Layer{
			Name: "price.total.box", Region: RegionPrice, Z: zHero,
			Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: 4, FillColor: ptr(colorBlack.WithAlpha(0.5))},
		})
		tb, err := c.composeTextBox(label, bx, by+2, bw, spec)
		if err != nil {
			return nil, 0, err
		}
		c.add(Layer{Name: "price.total", Region: RegionPrice, Z: zHero, Text: &tb})
		y = by - 4
	}

	// 主价格行：[Nx] R$ 金额，底边对齐。
	const lineH, gap = 48.0, 8.0
	type part struct {
		name, text string
		spec       textSpec
		width      float64
	}
	var parts []part
	if quote.Installment {
		parts = append(parts, part{name: "price.installments", text: fmt.Sprintf("%dx", quote.Installments),
			spec: textSpec{font: FontBold, size: 30, leading: LeadingNone, color: colorOrange, wrap: "nowrap"}})
	}
	parts = append(parts,
		part{name: "price.currency", text: currency, spec: textSpec{font: FontBold, size: 24, leading: LeadingNone, color: colorGold, wrap: "nowrap"}},
		part{name: "price.value", text: summary.Unit, spec: textSpec{font: FontDisplay, size: 48, leading: LeadingNone, color: colorGold, wrap: "nowrap"}},
	)
	total := gap * float64(len(parts)-1)
	for i := range parts {
		w, err := c.measure(parts[i].text, parts[i].spec)
		if err != nil {
			return nil, 0, err
		}
		parts[i].width = w
		total += w
	}
	lineTop := y - lineH
	x := a.x + (a.w-total)/2
	for _, p := range parts {
		tb, err := c.composeTextBox(p.text, x, lineTop+lineH-p.spec.size, p.width, p.spec)
		if err != nil {
			return nil, 0, err
		}
		tb.Shadow = ptr(colorBlack.WithAlpha(0.5))
		c.add(Layer{Name: p.name, Region: RegionPrice, Z: zHero, Text: &tb})
		x += p.width + gap
	}
	y = lineTop - 4

	// 付款条件标签。
	spec := textSpec{font: FontDisplay, size: 20, leading: 1.4, color: pal.accent, align: "center", wrap: "nowrap", upper: true}
	bw := a.w * 0.9
	bh := spec.leading.Resolve(spec.size) + 8
	bx, by := a.x+(a.w-bw)/2, y-bh
	c.add(Layer{
		Name: "price.condition.box", Region: RegionPrice, Z: zHero,
		Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: 4, FillColor: ptr(colorBlack.WithAlpha(0.6)),
			StrokeColor: ptr(colorWhite.WithAlpha(0.1)), StrokeWidth: 1},
	})
	tb, err := c.composeTextBox(cfg.PaymentCondition, bx, by+4, bw, spec)
	if err != nil {
		return nil, 0, err
	}
	c.add(Layer{Name: "price.condition", Region: RegionPrice, Z: zHero, Text: &tb})

	return summary, by - 4, nil
}

func (c *composer) hero(cfg flyer.Config, cat *catalog.Catalog, images ImageSlots, a area, mode LayoutMode, pal palette) error {
	geo, _ := modeGeometry(mode)
	top := a.top + geo.topOffset

	if cfg.ShowMemory && cfg.Memory != "" {
		anim := AnimationNone
		if cfg.EnableAnimations {
			anim = AnimationPulse
		}
		spec := textSpec{font: FontBold, size: 14, leading: 1.43, color: colorBlack, align: "center", wrap: "nowrap"}
		tw, err := c.measure(cfg.Memory, spec)
		if err != nil {
			return err
		}
		lh := spec.leading.Resolve(spec.size)
		bw, bh := tw+28, lh+12
		bx := a.x + (a.w-bw)/2
		c.add(Layer{
			Name: "hero.memory.badge", Region: RegionHero, Z: zBadge, Animation: anim,
			Rect: &Rect{X: bx, Y: top, Width: bw, Height: bh, Radius: 4, FillColor: ptr(colorOrange),
				StrokeColor: ptr(colorYellow400), StrokeWidth: 2},
		})
		tb, err := c.composeTextBox(cfg.Memory, bx, 0, bw, spec)
		if err != nil {
			return err
		}
		tb.Y = top + (bh-tb.Height)/2
		c.add(Layer{Name: "hero.memory", Region: RegionHero, Z: zBadge, Animation: anim, Text: &tb})
		top += bh + 8
	}

	// 产品名贴着区域底部，图片占据其上方剩余空间。
	name := cfg.ProductName()
	if name == "" {
		name = DefaultProductName
	}
	nameW := a.w
	if geo.nameMaxWidth > 0 && geo.nameMaxWidth < nameW {
		nameW = geo.nameMaxWidth
	}
	spec := textSpec{font: geo.nameFont, size: geo.nameSize, leading: geo.nameLeading, color: colorWhite, align: "center", upper: true}
	tb, err := c.composeTextBox(name, a.x+(a.w-nameW)/2, 0, nameW, spec)
	if err != nil {
		return err
	}
	tb.Y = a.bottom - 4 - tb.Height
	if mode == PriceHidden {
		tb.Color = pal.name
		tb.Gradient = pal.nameFill
		tb.Shadow = ptr(colorBlack.WithAlpha(0.8))
	} else {
		tb.Shadow = ptr(colorBlack.WithAlpha(0.5))
	}
	c.add(Layer{Name: "hero.name", Region: RegionHero, Z: zHero, Text: &tb})

	wrapTop, wrapBottom := top, tb.Y-geo.nameGapAbove
	wrapH := wrapBottom - wrapTop
	if wrapH < 0 {
		wrapH = 0
	}

	src := ProductImage(cfg, cat)
	if src == "" {
		return c.placeholder(a, wrapTop, wrapBottom, wrapH, geo.imageAnchor)
	}

	state := images.StateOf(SlotProduct, src)
	h := wrapH * geo.imageMaxRatio * geo.imageScale
	w := a.w * geo.imageScale
	x := a.x + (a.w-w)/2
	y := wrapTop
	if geo.imageAnchor == "bottom" {
		y = wrapBottom - geo.imagePadBelow - h
	}
	opacity := 1.0
	if state == ImagePending {
		opacity = 0
		c.add(Layer{
			Name: "hero.image.spinner", Region: RegionHero, Z: zSpinner, Animation: AnimationSpin,
			Spinner: &Spinner{CX: a.x + a.w/2, CY: wrapTop + wrapH/2, R: 20, Color: colorWhite.WithAlpha(0.5)},
		})
	}
	c.add(Layer{
		Name: "hero.image", Region: RegionHero, Z: zHero,
		Image: &ImageBox{Src: src, X: x, Y: y, Width: w, Height: h, Fit: "contain", Anchor: geo.imageAnchor, Opacity: opacity, State: state},
	})
	return nil
}

// placeholder 是没有任何图片来源时的虚线圆与提示文字。
func (c *composer) placeholder(a area, wrapTop, wrapBottom, wrapH float64, anchor string) error {
	ph := wrapH
	if ph > 192 {
		ph = 192
	}
	cy := wrapTop + ph/2
	if anchor == "bottom" {
		cy = wrapBottom - ph/2
	}
	cx := a.x + a.w/2
	c.add(Layer{
		Name: "hero.placeholder", Region: RegionHero, Z: zHero,
		Circle: &Circle{CX: cx, CY: cy, R: 64, FillColor: ptr(colorWhite.WithAlpha(0.1)),
			StrokeColor: ptr(colorWhite.WithAlpha(0.2)), StrokeWidth: 2, Dashed: true},
	})
	spec := textSpec{font: FontBody, size: 14, leading: LeadingNormal, color: colorWhite.WithAlpha(0.5), align: "center", wrap: "nowrap"}
	tb, err := c.composeTextBox(NoImageLabel, cx-64, 0, 128, spec)
	if err != nil {
		return err
	}
	tb.Y = cy - tb.Height/2
	c.add(Layer{Name: "hero.placeholder.label", Region: RegionHero, Z: zHero, Text: &tb})
	return nil
}

func (c *composer) cta(cfg flyer.Config, f frame, mode LayoutMode, pal palette) error {
	if !cfg.ShowCTA {
		return nil
	}
	_, geo := modeGeometry(mode)
	label := cfg.CTALabel()
	spec := textSpec{font: FontDisplay, size: geo.fontSize, leading: 1.43, align: "center", wrap: "nowrap", upper: true}

	fill, stroke := pal.ctaCornerBg, colorWhite
	spec.color = pal.ctaCornerFg
	placement := PlacementCorner
	anim := AnimationNone
	if !geo.corner {
		fill, stroke = colorBlack.WithAlpha(0.8), colorOrange.WithAlpha(0.5)
		spec.color = colorOrange
		placement = PlacementCenter
		if geo.animation && cfg.EnableAnimations {
			anim = AnimationPulseFast
		}
	}

	tw, err := c.measure(label, spec)
	if err != nil {
		return err
	}
	lh := spec.leading.Resolve(spec.size)
	bw, bh := tw+2*geo.padX+4, lh+2*geo.padY+4
	bx := f.x + (f.w-bw)/2
	if geo.corner {
		bx = f.right() - geo.right - bw
	}
	by := f.bottom() - geo.bottom - bh

	// 按钮与文字共享中心点，旋转后仍然重合。
	c.add(Layer{
		Name: "cta.button", Region: RegionCTA, Z: zCTA, Rotation: geo.rotation, Placement: placement, Animation: anim,
		Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: 4, FillColor: ptr(fill), StrokeColor: ptr(stroke), StrokeWidth: 2},
	})
	tb, err := c.composeTextBox(label, bx, 0, bw, spec)
	if err != nil {
		return err
	}
	tb.Y = by + (bh-tb.Height)/2
	c.add(Layer{Name: "cta", Region: RegionCTA, Z: zCTA, Rotation: geo.rotation, Placement: placement, Animation: anim, Text: &tb})
	return nil
}

func (c *composer) footer(cfg flyer.Config, f frame, images ImageSlots) error {
	const backdropH = 150.0
	c.add(Layer{
		Name: "footer.backdrop", Region: RegionFooter, Z: zFooter,
		Rect: &Rect{X: f.x, Y: f.bottom() - backdropH, Width: f.w, Height: backdropH,
			Gradient: &Gradient{From: colorBlack.WithAlpha(0), To: colorBlack}},
	})

	if cfg.ShowLogo && cfg.Logo != "" {
		const size = 128.0
		lx, ly := f.x, f.bottom()+18-size
		state := images.StateOf(SlotLogo, cfg.Logo)
		opacity := 1.0
		if state == ImagePending {
			opacity = 0
			c.add(Layer{
				Name: "footer.logo.spinner", Region: RegionFooter, Z: zFooterLogo, Animation: AnimationSpin,
				Spinner: &Spinner{CX: lx + size/2, CY: ly + size/2, R: 12, Color: colorWhite.WithAlpha(0.5)},
			})
		}
		c.add(Layer{
			Name: "footer.logo", Region: RegionFooter, Z: zFooterLogo,
			Image: &ImageBox{Src: cfg.Logo, X: lx, Y: ly, Width: size, Height: size, Fit: "contain", Anchor: "bottom", Opacity: opacity, State: state},
		})
	}

	// 联系方式列右对齐，自下而上：地址在下，WhatsApp 在上。
	right := f.right() - 16
	y := f.bottom() - 16
	if cfg.ShowAddress && cfg.Address != "" {
		spec := textSpec{font: FontBody, size: 10, leading: LeadingTight, color: colorGray200, align: "right", wrap: "break-word"}
		tb, err := c.composeTextBox(cfg.Address, 0, 0, 150, spec)
		if err != nil {
			return err
		}
		tw := 0.0
		for _, ln := range tb.Lines {
			if ln.Width > tw {
				tw = ln.Width
			}
		}
		if tw > 150 {
			tw = 150
		}
		const pad, icon, gap = 8.0, 12.0, 6.0
		bw, bh := tw+gap+icon+2*pad, tb.Height+8
		bx, by := right-bw, y-bh
		c.add(Layer{
			Name: "footer.address.box", Region: RegionFooter, Z: zFooter,
			Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: 4, FillColor: ptr(colorBlack.WithAlpha(0.5)),
				StrokeColor: ptr(colorWhite.WithAlpha(0.1)), StrokeWidth: 1},
		})
		tb.X, tb.Y, tb.Width = bx+pad, by+4, tw
		c.add(Layer{Name: "footer.address", Region: RegionFooter, Z: zFooter, Text: &tb})
		c.add(Layer{
			Name: "footer.address.icon", Region: RegionFooter, Z: zFooter,
			Circle: &Circle{CX: bx + bw - pad - icon/2, CY: by + 4 + icon/2, R: icon / 3, FillColor: ptr(colorOrange)},
		})
		y = by - 6
	}

	if cfg.ShowContact {
		spec := textSpec{font: FontBold, size: 12, leading: 1.33, color: colorWhite, wrap: "nowrap"}
		tw, err := c.measure(cfg.WhatsApp, spec)
		if err != nil {
			return err
		}
		const padX, icon, gap, bh = 12.0, 14.0, 8.0, 28.0
		bw := tw + 2*padX + icon + gap
		bx, by := right-bw, y-bh
		c.add(Layer{
			Name: "footer.whatsapp.box", Region: RegionFooter, Z: zFooter,
			Rect: &Rect{X: bx, Y: by, Width: bw, Height: bh, Radius: 8, FillColor: ptr(colorGreen600.WithAlpha(0.9)),
				StrokeColor: ptr(colorGreen400.WithAlpha(0.3)), StrokeWidth: 1},
		})
		c.add(Layer{
			Name: "footer.whatsapp.icon", Region: RegionFooter, Z: zFooter,
			Circle: &Circle{CX: bx + padX + icon/2, CY: by + bh/2, R: icon / 2, FillColor: ptr(colorWhite)},
		})
		tb, err := c.composeTextBox(cfg.WhatsApp, bx+padX+icon+gap, 0, tw, spec)
		if err != nil {
			return err
		}
		tb.Y = by + (bh-tb.Height)/2
		c.add(Layer{Name: "footer.whatsapp", Region: RegionFooter, Z: zFooter, Text: &tb})
	}
	return nil
}

// border 是压在最上层的主题色边框，描边以路径为中线。
func (c *composer) border(pal palette) {
	half := BorderWidth / 2
	c.add(Layer{
		Name: "frame.border", Region: RegionFrame, Z: zFrame,
		Rect: &Rect{X: half, Y: half, Width: FrameWidth - BorderWidth, Height: FrameHeight - BorderWidth,
			StrokeColor: ptr(pal.border), StrokeWidth: BorderWidth},
	})
}
