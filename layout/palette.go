package layout

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ByLCY/studiophone/flyer"
)

// palette 是主题相关的颜色集合。
type palette struct {
	border      Color
	accent      Color
	ctaCornerBg Color
	ctaCornerFg Color
	name        Color
	nameFill    *Gradient
}

// 固定色，与原设计的 tailwind 色板一致。
var (
	colorBlack     = mustHex("#000000")
	colorWhite     = mustHex("#FFFFFF")
	colorGold      = mustHex("#FFD700")
	colorCrimson   = mustHex("#DC143C")
	colorYellow400 = mustHex("#FACC15")
	colorRed600    = mustHex("#DC2626")
	colorOrange    = mustHex("#FF6B00") // bf-orange
	colorBFText    = mustHex("#FFD600") // bf-text
	colorGreen600  = mustHex("#16A34A")
	colorGreen400  = mustHex("#4ADE80")
	colorBlue400   = mustHex("#60A5FA")
	colorGray200   = mustHex("#E5E7EB")
	colorYellow300 = mustHex("#FDE047")
	colorOrange500 = mustHex("#F97316")
)

func paletteFor(theme flyer.Theme) palette {
	if theme == flyer.ThemeChristmas {
		return palette{
			border:      colorYellow400,
			accent:      colorYellow400,
			ctaCornerBg: colorRed600,
			ctaCornerFg: colorWhite,
			name:        colorWhite,
		}
	}
	return palette{
		border:      colorCrimson,
		accent:      colorCrimson,
		ctaCornerBg: colorBFText,
		ctaCornerFg: colorBlack,
		name:        colorYellow300,
		nameFill:    &Gradient{From: colorYellow300, To: colorOrange500},
	}
}

// ParseColor 解析 #RGB / #RRGGBB 形式的颜色。
func ParseColor(value string) (Color, error) {
	c, err := colorful.Hex(expandShortHex(value))
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	r, g, b := c.RGB255()
	return Color{R: int(r), G: int(g), B: int(b), A: 255}, nil
}

func expandShortHex(v string) string {
	if len(v) == 4 && v[0] == '#' {
		return string([]byte{'#', v[1], v[1], v[2], v[2], v[3], v[3]})
	}
	return v
}

func mustHex(v string) Color {
	c, err := ParseColor(v)
	if err != nil {
		panic(err)
	}
	return c
}

func ptr[T any](v T) *T { return &v }
