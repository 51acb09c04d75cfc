package flyer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// 该文件定义单张海报（flyer）的配置模型，由会话持有并逐字段修改。

// Theme 选择背景、强调色与装饰层。
type Theme string

const (
	ThemeBlackFriday Theme = "black_friday"
	ThemeChristmas   Theme = "christmas"
)

// Themes 按固定顺序列出全部主题。
var Themes = []Theme{ThemeBlackFriday, ThemeChristmas}

// Brand 标识产品品牌，对应目录中的一级键。
type Brand string

const (
	BrandXiaomi Brand = "Xiaomi"
	BrandApple  Brand = "Apple"
)

// Brands 按固定顺序列出全部品牌。
var Brands = []Brand{BrandXiaomi, BrandApple}

// Toggles 是彼此独立的可见性开关，外加一个动画开关。
type Toggles struct {
	ShowPrice        bool `json:"showPrice" yaml:"showPrice"`
	ShowContact      bool `json:"showContact" yaml:"showContact"`
	ShowAddress      bool `json:"showAddress" yaml:"showAddress"`
	ShowCTA          bool `json:"showCta" yaml:"showCta"`
	ShowLogo         bool `json:"showLogo" yaml:"showLogo"`
	ShowMemory       bool `json:"showMemory" yaml:"showMemory"`
	EnableAnimations bool `json:"enableAnimations" yaml:"enableAnimations"`
}

// Config 描述一张海报的全部字段。
// Memory 必须属于当前 Model 的内存选项集合或为空，该约束由 studio.Session 保证。
type Config struct {
	Theme Theme  `json:"theme"`
	Brand Brand  `json:"brand"`
	Model string `json:"model"`
	// Memory 例如 "128GB / 6GB RAM"，依赖 Model。
	Memory string `json:"memory"`

	Price             decimal.Decimal `json:"price"`
	PaymentCondition  string          `json:"paymentCondition"`
	Installments      int             `json:"installments"`
	TotalWithInterest decimal.Decimal `json:"totalWithInterest"`

	Instagram string `json:"instagram"`
	WhatsApp  string `json:"whatsapp"`
	Address   string `json:"address"`

	CTAText   string `json:"ctaText"`
	CustomCTA string `json:"customCta"`

	// Logo 与 CustomProductImage 为 data URL 或 URL，空字符串表示未设置。
	Logo               string `json:"logo,omitempty"`
	CustomProductImage string `json:"customProductImage,omitempty"`

	Toggles
}

// Defaults 返回会话开始时的固定初始配置。
func Defaults() Config {
	return Config{
		Theme:             ThemeBlackFriday,
		Brand:             BrandXiaomi,
		Price:             decimal.RequireFromString("1999.99"),
		PaymentCondition:  "À VISTA",
		Installments:      12,
		TotalWithInterest: decimal.RequireFromString("2200.00"),
		Instagram:         "@SuaLoja.imports",
		WhatsApp:          "(11) 99999-9999",
		Address:           "Rua das Ofertas, 123",
		CTAText:           "Imperdível!",
		Toggles: Toggles{
			ShowPrice:   true,
			ShowContact: true,
			ShowAddress: true,
			ShowCTA:     true,
			ShowLogo:    true,
			ShowMemory:  true,
		},
	}
}

// CTALabel 返回实际显示的行动号召文字：CustomCTA 非空时优先。
func (c Config) CTALabel() string {
	if c.CustomCTA != "" {
		return c.CustomCTA
	}
	return c.CTAText
}

// ProductName 返回产品展示名，未选择型号时为空。
func (c Config) ProductName() string {
	return c.Model
}

// ParseTheme 接受 black_friday / BLACK_FRIDAY / black-friday 等写法。
func ParseTheme(v string) (Theme, error) {
	key := strings.ToLower(strings.TrimSpace(v))
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case "black_friday", "blackfriday":
		return ThemeBlackFriday, nil
	case "christmas", "natal":
		return ThemeChristmas, nil
	}
	return "", fmt.Errorf("未知主题：%s", v)
}

// ParseBrand 忽略大小写匹配已知品牌。
func ParseBrand(v string) (Brand, error) {
	for _, b := range Brands {
		if strings.EqualFold(string(b), strings.TrimSpace(v)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("未知品牌：%s", v)
}
