package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// formatBRL renders an amount the Brazilian way: R$ 1.234,56.
func formatBRL(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, b.String(), frac)
}

// formatLongDate renders "15 de maio de 2024".
func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// formatMonthLabel turns a "2024-05" bucket into "maio/2024".
func formatMonthLabel(bucket string) string {
	t, err := time.Parse("2006-01", bucket)
	if err != nil {
		return bucket
	}
	return fmt.Sprintf("%s/%d", monthNames[t.Month()-1], t.Year())
}

func formatQuantity(q decimal.Decimal) string {
	if q.IsInteger() {
		return q.String()
	}
	return strings.Replace(q.String(), ".", ",", 1)
}
