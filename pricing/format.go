package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale 与原始界面一致（巴西葡萄牙语："1.999,99"）。
const DefaultLocale = "pt-BR"

// Formatter 以固定两位小数、按区域设置格式化金额。
type Formatter struct {
	printer *message.Printer
}

// NewFormatter 创建格式化器；locale 无法识别时回退到 DefaultLocale。
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format 输出恰好两位小数的本地化数字，不带货币符号。
// 先在十进制下四舍五入到分，再交给区域格式化，避免二进制浮点漂移影响显示。
func (f *Formatter) Format(v decimal.Decimal) string {
	if f == nil || f.printer == nil {
		f = NewFormatter(DefaultLocale)
	}
	cents := v.Round(2).InexactFloat64()
	return f.printer.Sprint(number.Decimal(cents, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
