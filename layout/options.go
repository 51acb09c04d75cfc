package layout

import "github.com/ByLCY/studiophone/pricing"

// ComposeOptions 配置合成阶段所需的依赖，例如排版后端与图片加载状态。
type ComposeOptions struct {
	Typesetter Typesetter
	Images     ImageSlots
	Formatter  *pricing.Formatter
	Calculator pricing.Calculator
	Currency   string // 默认 "R$"
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}
