package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{"fits", "Burger", 12, []string{"Burger"}},
		{"breaks on word boundary", "Fried Rice (L)", 12, []string{"Fried Rice", "(L)"}},
		{"exact width word", "Cheeseburger", 12, []string{"Cheeseburger"}},
		{"long word is split", "Supercalifragilistic", 12, []string{"Supercalifra", "gilistic"}},
		{"long word after short", "Hot Supercalifragilistic", 12, []string{"Hot", "Supercalifra", "gilistic"}},
		{"collapses whitespace", "  Egg   Fried  Rice ", 12, []string{"Egg Fried", "Rice"}},
		{"empty", "", 12, []string{""}},
		{"zero width", "ab", 0, []string{"a", "b"}},
		{"negative width", "ab", -3, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wrapText(tt.text, tt.width))
		})
	}
}

func TestWrapTextNeverExceedsWidth(t *testing.T) {
	names := []string{
		"Chicken Devilled Fried Rice With Extra Cashew (XL)",
		"Nasi Goreng Kampung Special",
		"A B C D E F G H I J K L M N O P",
		"Mixed_Seafood_Kottu_With_Cheese",
	}
	for _, width := range []int{1, 5, 12, 38} {
		for _, name := range names {
			for _, l := range wrapText(name, width) {
				assert.LessOrEqual(t, len([]rune(l)), width, "name %q width %d", name, width)
				assert.NotEmpty(t, l)
			}
		}
	}
}

func TestPadding(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "   ab", padLeft("ab", 5))
	assert.Equal(t, "abcdef", padLeft("abcdef", 3))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
	assert.Equal(t, "ü   ", padRight("ü", 4))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00", formatMoney(decimal.Zero))
	assert.Equal(t, "1300.00", formatMoney(decimal.NewFromInt(1300)))
	assert.Equal(t, "21.97", formatMoney(decimal.RequireFromString("21.97")))
	assert.Equal(t, "8.99", formatMoney(decimal.RequireFromString("8.990")))
}

func TestColumnsFillContentWidth(t *testing.T) {
	assert.Equal(t, ContentWidth, itemColWidth+qtyColWidth+rateColWidth+amountColWidth)
	assert.Equal(t, ContentWidth, totalsLabelWidth+totalsValueWidth)
	assert.Len(t, leftPadding, 3)
}
