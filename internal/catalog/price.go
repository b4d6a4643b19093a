package catalog

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rupiah = message.NewPrinter(language.Indonesian)

// FormatPrice renders a price in Indonesian rupiah with "." as the thousands
// separator and no fractional digits, e.g. 1500000 -> "Rp 1.500.000".
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "Rp -"
	}

	amount := int64(math.Round(price))
	if amount < 0 {
		return "-Rp " + rupiah.Sprintf("%d", -amount)
	}
	return "Rp " + rupiah.Sprintf("%d", amount)
}
