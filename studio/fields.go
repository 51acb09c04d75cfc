package studio

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/ByLCY/studiophone/flyer"
)

// Fields 列出 SetField 接受的键。
var Fields = []string{
	"theme", "brand", "model", "memory",
	"price", "payment", "installments", "total",
	"instagram", "whatsapp", "address",
	"cta", "custom_cta", "logo", "image",
}

// ToggleNames 列出 SetToggle 接受的开关名。
var ToggleNames = []string{"price", "contact", "address", "cta", "logo", "memory", "animations"}

// SetField 按键设置字段，value 只做基本的类型转换，不校验业务规则。
// theme、brand、model、memory 走各自的 setter 以保持重置规则。
func (s *Session) SetField(key string, value any) error {
	switch normalizeKey(key) {
	case "theme":
		theme, err := flyer.ParseTheme(cast.ToString(value))
		if err != nil {
			return err
		}
		return s.SetTheme(theme)
	case "brand":
		brand, err := flyer.ParseBrand(cast.ToString(value))
		if err != nil {
			return err
		}
		return s.SetBrand(brand)
	case "model":
		return s.SetModel(cast.ToString(value))
	case "memory":
		return s.SetMemory(cast.ToString(value))
	case "price":
		d, err := parseMoney(value)
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		s.update(func(c *flyer.Config) { c.Price = d })
	case "total":
		d, err := parseMoney(value)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		s.update(func(c *flyer.Config) { c.TotalWithInterest = d })
	case "installments":
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("installments: %w", err)
		}
		s.update(func(c *flyer.Config) { c.Installments = n })
	case "payment":
		s.setString(value, func(c *flyer.Config, v string) { c.PaymentCondition = v })
	case "instagram":
		s.setString(value, func(c *flyer.Config, v string) { c.Instagram = v })
	case "whatsapp":
		s.setString(value, func(c *flyer.Config, v string) { c.WhatsApp = v })
	case "address":
		s.setString(value, func(c *flyer.Config, v string) { c.Address = v })
	case "cta":
		s.setString(value, func(c *flyer.Config, v string) { c.CTAText = v })
	case "custom_cta":
		s.setString(value, func(c *flyer.Config, v string) { c.CustomCTA = v })
	case "logo":
		s.setString(value, func(c *flyer.Config, v string) { c.Logo = v })
	case "image":
		s.setString(value, func(c *flyer.Config, v string) { c.CustomProductImage = v })
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	return nil
}

// SetToggle 打开或关闭一个可见性开关，或动画开关。
func (s *Session) SetToggle(name string, on bool) error {
	var target func(t *flyer.Toggles) *bool
	switch normalizeKey(strings.TrimPrefix(strings.ToLower(name), "show")) {
	case "price":
		target = func(t *flyer.Toggles) *bool { return &t.ShowPrice }
	case "contact":
		target = func(t *flyer.Toggles) *bool { return &t.ShowContact }
	case "address":
		target = func(t *flyer.Toggles) *bool { return &t.ShowAddress }
	case "cta":
		target = func(t *flyer.Toggles) *bool { return &t.ShowCTA }
	case "logo":
		target = func(t *flyer.Toggles) *bool { return &t.ShowLogo }
	case "memory":
		target = func(t *flyer.Toggles) *bool { return &t.ShowMemory }
	case "animations", "animation", "enableanimations":
		target = func(t *flyer.Toggles) *bool { return &t.EnableAnimations }
	default:
		return fmt.Errorf("%w: %s", ErrUnknownToggle, name)
	}
	s.update(func(c *flyer.Config) { *target(&c.Toggles) = on })
	return nil
}

func (s *Session) setString(value any, set func(c *flyer.Config, v string)) {
	v := cast.ToString(value)
	s.update(func(c *flyer.Config) { set(c, v) })
}

// normalizeKey 统一 custom-cta / customCta / custom_cta 等写法。
func normalizeKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	switch k {
	case "customcta":
		return "custom_cta"
	case "paymentcondition", "payment_condition":
		return "payment"
	case "totalwithinterest", "total_with_interest":
		return "total"
	case "customproductimage", "custom_product_image", "product_image":
		return "image"
	}
	return k
}

// parseMoney 接受数字或 "1999.99"、"1.999,99"、"1,999.99"、"R$ 999,00" 之类的文本，保留两位小数。
// 同时出现 "." 与 "," 时，靠后的一个是小数点；只有一种分隔符且恰好出现一次、
// 后面跟三位数字时（如 "1.999"）无法区分千位与小数，直接拒绝。
func parseMoney(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.Round(2), nil
	case string:
		text, err := normalizeMoney(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("无法解析金额 %q", v)
		}
		return d.Round(2), nil
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromFloat(f).Round(2), nil
}

// normalizeMoney 把金额文本改写为只用 "." 作小数点、没有千位分隔符的形式。
func normalizeMoney(raw string) (string, error) {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	text = strings.ReplaceAll(text, " ", "")
	dot, comma := strings.LastIndex(text, "."), strings.LastIndex(text, ",")
	switch {
	case dot >= 0 && comma >= 0:
		decimalSep, groupSep := ".", ","
		if comma > dot {
			decimalSep, groupSep = ",", "."
		}
		text = strings.ReplaceAll(text, groupSep, "")
		if strings.Count(text, decimalSep) > 1 {
			return "", fmt.Errorf("无法解析金额 %q", raw)
		}
		return strings.Replace(text, decimalSep, ".", 1), nil
	case dot >= 0 || comma >= 0:
		sep := "."
		if comma >= 0 {
			sep = ","
		}
		parts := strings.Split(text, sep)
		if len(parts) > 2 {
			// 多个同种分隔符只能是千位分隔，例如 "1.999.999"
			for _, p := range parts[1:] {
				if len(p) != 3 {
					return "", fmt.Errorf("无法解析金额 %q", raw)
				}
			}
			return strings.Join(parts, ""), nil
		}
		if len(parts[1]) == 3 {
			return "", fmt.Errorf("金额 %q 有歧义：无法判断 %q 是千位分隔符还是小数点", raw, sep)
		}
		return parts[0] + "." + parts[1], nil
	}
	return text, nil
}
