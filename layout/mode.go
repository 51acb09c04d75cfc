package layout

// LayoutMode 是由 showPrice 决定的两种结构不同的版式。
type LayoutMode string

const (
	// PriceVisible：图片较小、产品名为中等粗体标题，CTA 居中。
	PriceVisible LayoutMode = "price-visible"
	// PriceHidden：不显示价格时产品名成为主要卖点，图片更大、标题更醒目，CTA 移到角落并旋转。
	PriceHidden LayoutMode = "price-hidden"
)

// ModeFor 将可见性开关映射为版式。
func ModeFor(showPrice bool) LayoutMode {
	if showPrice {
		return PriceVisible
	}
	return PriceHidden
}

// heroGeometry 是主图区域在某一版式下的参数。
type heroGeometry struct {
	imageMaxRatio float64 // 图片最大高度占可用高度的比例
	imageScale    float64
	imageAnchor   string
	imagePadBelow float64
	topOffset     float64 // 区域顶部额外留白
	nameFont      string
	nameSize      float64
	nameLeading   LineHeightSpec
	nameMaxWidth  float64
	nameGapAbove  float64
}

// ctaGeometry 是 CTA 在某一版式下的位置与样式参数。
type ctaGeometry struct {
	corner    bool
	right     float64 // corner 模式下距右边
	bottom    float64 // 距底边
	fontSize  float64
	padX      float64
	padY      float64
	rotation  float64
	animation bool // 是否允许脉冲动画
}

// modeGeometry 集中两种版式的全部差异，合成代码只按返回值布局。
func modeGeometry(mode LayoutMode) (heroGeometry, ctaGeometry) {
	switch mode {
	case PriceHidden:
		return heroGeometry{
				imageMaxRatio: 0.85,
				imageScale:    1.05,
				imageAnchor:   "top",
				topOffset:     16,
				nameFont:      FontDisplay,
				nameSize:      48,
				nameLeading:   LeadingNone,
				nameGapAbove:  16,
			}, ctaGeometry{
				corner:   true,
				right:    24,
				bottom:   128,
				fontSize: 14,
				padX:     16,
				padY:     8,
				rotation: -6,
			}
	default:
		return heroGeometry{
				imageMaxRatio: 0.60,
				imageScale:    0.90,
				imageAnchor:   "bottom",
				imagePadBelow: 16,
				nameFont:      FontBold,
				nameSize:      30,
				nameLeading:   LeadingTight,
				nameMaxWidth:  320,
			}, ctaGeometry{
				bottom:    72,
				fontSize:  20,
				padX:      16,
				padY:      4,
				rotation:  -3,
				animation: true,
			}
	}
}
