// Package pricing 根据价格、支付条件与分期信息计算海报上显示的单价与总价。
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMarkers 是判定分期类支付条件的标记词（子串匹配，忽略大小写）。
var DefaultMarkers = []string{"CARTÃO", "BOLETO"}

// Input 是计算所需的配置子集。
type Input struct {
	Price             decimal.Decimal
	PaymentCondition  string
	Installments      int
	TotalWithInterest decimal.Decimal
}

// Quote 是计算结果。
// Installment 为 false 时 Total 仍然计算，但不应显示。
type Quote struct {
	Unit         decimal.Decimal
	Total        decimal.Decimal
	Installment  bool
	Installments int
}

// Calculator 持有分期标记词；零值使用 DefaultMarkers。
type Calculator struct {
	Markers []string
}

// Calculate 使用默认标记词计算。
func Calculate(in Input) Quote {
	return Calculator{}.Calculate(in)
}

// IsInstallment 使用默认标记词判断支付条件。
func IsInstallment(cond string) bool {
	return Calculator{}.IsInstallment(cond)
}

// IsInstallment 判断支付条件是否为分期类。
func (c Calculator) IsInstallment(cond string) bool {
	markers := c.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	upper := strings.ToUpper(cond)
	for _, m := range markers {
		if m != "" && strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

// Calculate 计算单价：分期时为 TotalWithInterest / Installments，否则为现金价。
// 分期数小于 1 时不做除法，按现金价显示。
func (c Calculator) Calculate(in Input) Quote {
	q := Quote{
		Unit:  in.Price,
		Total: in.TotalWithInterest,
	}
	if !c.IsInstallment(in.PaymentCondition) {
		return q
	}
	if in.Installments < 1 {
		return q
	}
	q.Installment = true
	q.Installments = in.Installments
	q.Unit = in.TotalWithInterest.Div(decimal.NewFromInt(int64(in.Installments))).Round(2)
	return q
}
