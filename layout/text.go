package layout

import (
	"math"
	"strings"
	"unicode/utf8"
)

// 图层使用的字体名称，对应 ResourceSet.Fonts 的键。
const (
	FontBody    = "Body"
	FontBold    = "Bold"
	FontDisplay = "Display"
)

// defaultFonts 是合成结果引用的全部字体，src 由 fonts 包解析。
func defaultFonts() map[string]FontResource {
	return map[string]FontResource{
		FontBody:    {Name: FontBody, Src: "embed:regular", Family: "Body"},
		FontBold:    {Name: FontBold, Src: "embed:bold", Style: "bold", Family: "Bold"},
		FontDisplay: {Name: FontDisplay, Src: "embed:black", Style: "black", Family: "Display"},
	}
}

// textSpec 是合成文本块所需的样式参数。
type textSpec struct {
	font    string
	size    float64
	leading LineHeightSpec
	color   Color
	align   string
	wrap    string
	upper   bool
}

// composer 持有一次合成的上下文；Compose 每次新建，不跨调用保留状态。
type composer struct {
	ts     Typesetter
	fonts  map[string]FontResource
	layers []Layer
}

// composeTextBox 将内容按宽度排版成 TextBox，返回其总高度。
func (c *composer) composeTextBox(content string, x, y, width float64, spec textSpec) (TextBox, error) {
	lineHeight := spec.leading.Resolve(spec.size)
	wrap := spec.wrap
	if wrap == "" {
		wrap = "anywhere"
	}
	shown, transform := content, ""
	if spec.upper {
		shown, transform = strings.ToUpper(content), "uppercase"
	}
	lines, err := c.layoutLines(shown, width, c.fonts[spec.font], spec.size, lineHeight, wrap)
	if err != nil {
		return TextBox{}, err
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-spec.size, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = spec.size
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       spec.font,
		FontSize:   spec.size,
		Color:      spec.color,
		Lines:      lines,
		Height:     totalHeight,
		Align:      spec.align,
		Transform:  transform,
		Wrap:       wrap,
	}, nil
}

// measure 返回单行（不折行）文本的最大行宽。
func (c *composer) measure(content string, spec textSpec) (float64, error) {
	if spec.upper {
		content = strings.ToUpper(content)
	}
	if c.ts == nil {
		return estimateTextWidth(content, spec.size, spec.font), nil
	}
	lineHeight := spec.leading.Resolve(spec.size)
	lines, err := c.layoutLines(content, math.MaxFloat64, c.fonts[spec.font], spec.size, lineHeight, "nowrap")
	if err != nil {
		return 0, err
	}
	maxW := 0.0
	for _, ln := range lines {
		if ln.Width > maxW {
			maxW = ln.Width
		}
	}
	if maxW <= 0 {
		return estimateTextWidth(content, spec.size, spec.font), nil
	}
	return maxW, nil
}

func (c *composer) layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, wrap string) ([]TextLine, error) {
	if c.ts == nil {
		return estimateLines(content, width, fontSize, font.Name, wrap), nil
	}
	lines, err := c.ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: 0, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// estimateLines 在没有排版后端时按字符宽度估算折行，结果只依赖输入，保持确定性。
func estimateLines(content string, width, fontSize float64, font, wrap string) []TextLine {
	var out []TextLine
	for _, para := range strings.Split(content, "\n") {
		if wrap == "nowrap" || width <= 0 || width == math.MaxFloat64 {
			out = append(out, TextLine{Content: para, Width: estimateTextWidth(para, fontSize, font), Height: fontSize})
			continue
		}
		var current []string
		flush := func() {
			line := strings.Join(current, " ")
			out = append(out, TextLine{Content: line, Width: estimateTextWidth(line, fontSize, font), Height: fontSize})
			current = nil
		}
		for _, word := range strings.Fields(para) {
			candidate := strings.Join(append(append([]string{}, current...), word), " ")
			if len(current) > 0 && estimateTextWidth(candidate, fontSize, font) > width {
				flush()
			}
			current = append(current, word)
		}
		flush()
	}
	if len(out) == 0 {
		out = []TextLine{{Content: "", Height: fontSize}}
	}
	return out
}

func estimateTextWidth(content string, fontSize float64, font string) float64 {
	factor := 0.55
	if font == FontBold || font == FontDisplay {
		factor = 0.62
	}
	return fontSize * factor * float64(utf8.RuneCountInString(content))
}

func (c *composer) add(l Layer) {
	if l.Opacity == 0 {
		l.Opacity = 1
	}
	c.layers = append(c.layers, l)
}
