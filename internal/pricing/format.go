package pricing

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// money formats minor-unit amounts for one locale and currency.
type money struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
	pow     int64
}

func newMoney(tag language.Tag, unit currency.Unit) money {
	scale, _ := currency.Standard.Rounding(unit)
	pow := int64(1)
	for i := 0; i < scale; i++ {
		pow *= 10
	}
	return money{printer: message.NewPrinter(tag), unit: unit, scale: scale, pow: pow}
}

// format keeps the whole part integral so amounts of any int64 size print
// exactly; only the fraction below one major unit goes through a float.
func (m money) format(minor int64) string {
	sign := ""
	whole, frac := minor/m.pow, minor%m.pow
	if minor < 0 {
		sign = "-"
		whole, frac = -whole, -frac
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(m.printer.Sprint(number.Decimal(uint64(whole))))
	if m.scale > 0 {
		// Formatted as "0<sep><digits>" in the locale; drop the leading zero.
		f := m.printer.Sprint(number.Decimal(float64(frac)/float64(m.pow), number.Scale(m.scale)))
		_, size := utf8.DecodeRuneInString(f)
		b.WriteString(f[size:])
	}
	return m.printer.Sprintf("%v %v", currency.Symbol(m.unit), b.String())
}
