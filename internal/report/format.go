package report

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Decimal places shown in the report.
const (
	RatioPrecision = 4
	SizePrecision  = 2
)

// printer formats integers with English thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators.
// Example: FormatNumber(4503945231) returns "4,503,945,231".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatDecimal rounds r to at most places decimals, half away from zero, and
// drops trailing zeros while keeping one decimal digit. The integer part gets
// thousand separators.
// Example: FormatDecimal(7.2, 4) returns "7.2"; FormatDecimal(1234.5678, 2) returns "1,234.57".
func FormatDecimal(r *big.Rat, places int) string {
	s := r.FloatString(places)

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac {
		fracPart = strings.TrimRight(fracPart, "0")
		if fracPart == "" {
			fracPart = "0"
		}
	} else {
		fracPart = "0"
	}

	negative := strings.HasPrefix(intPart, "-")
	n, err := strconv.ParseInt(strings.TrimPrefix(intPart, "-"), 10, 64)
	if err != nil {
		return intPart + "." + fracPart
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + FormatNumber(n) + "." + fracPart
}

// FormatPlaytime renders minutes as "Xh Ym".
func FormatPlaytime(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/MinutesPerHour, minutes%MinutesPerHour)
}

// FormatSize renders bytes as "N.NN GB (B B)".
func FormatSize(sizeBytes int64) string {
	return formatSize(big.NewRat(sizeBytes, BytesPerGB), sizeBytes)
}

func formatSize(gb *big.Rat, sizeBytes int64) string {
	return fmt.Sprintf("%s GB (%s B)", FormatDecimal(gb, SizePrecision), FormatNumber(sizeBytes))
}

// FormatRatio renders a GB-per-hour value rounded to RatioPrecision decimals.
func FormatRatio(r *big.Rat) string {
	return FormatDecimal(r, RatioPrecision)
}
