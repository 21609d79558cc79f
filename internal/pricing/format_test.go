package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

func TestMoneyFormat(t *testing.T) {
	usd := newMoney(language.AmericanEnglish, currency.USD)
	jpy := newMoney(language.AmericanEnglish, currency.JPY)

	tests := []struct {
		name  string
		m     money
		minor int64
		want  string
	}{
		{name: "cents only", m: usd, minor: 5, want: "0.05"},
		{name: "grouped", m: usd, minor: 123456789, want: "1,234,567.89"},
		{name: "beyond float precision", m: usd, minor: 9007199254740993, want: "90,071,992,547,409.93"},
		{name: "max int64", m: usd, minor: 9223372036854775807, want: "92,233,720,368,547,758.07"},
		{name: "negative", m: usd, minor: -250, want: "-2.50"},
		{name: "no minor unit", m: jpy, minor: 1500, want: "1,500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.format(tt.minor)
			assert.Contains(t, got, tt.want)
		})
	}
}
