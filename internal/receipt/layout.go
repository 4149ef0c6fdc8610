package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Paper geometry of the 80mm thermal head, in characters.
const (
	PrinterWidth = 44
	ContentWidth = 38

	topMarginLines    = 1
	bottomMarginLines = 6

	// Item table columns; they add up to ContentWidth.
	itemColWidth   = 12
	qtyColWidth    = 7
	rateColWidth   = 9
	amountColWidth = 10

	totalsLabelWidth = 28
	totalsValueWidth = 10

	kotRuleWidth = 32
)

var (
	leftPadding = strings.Repeat(" ", (PrinterWidth-ContentWidth)/2)
	contentRule = strings.Repeat("-", ContentWidth)
	kotRule     = strings.Repeat("-", kotRuleWidth)
)

// formatMoney renders two decimals with no currency symbol.
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

// wrapText breaks text on word boundaries so that no line exceeds width.
// A word longer than width is split into width-sized chunks. Blank text
// yields a single empty line so the caller always has a row to print on.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		if word == "" {
			continue
		}
		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) > width:
			lines = append(lines, current)
			current = word
		default:
			current += " " + word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// ticket accumulates text and control codes for one print job.
type ticket struct {
	sb      strings.Builder
	dialect Dialect
}

func (t *ticket) cmd(c Command) {
	t.sb.WriteString(string(c))
}

func (t *ticket) line(s string) {
	t.sb.WriteString(s)
	t.sb.WriteString(t.dialect.NewLine)
}

func (t *ticket) blank(n int) {
	for i := 0; i < n; i++ {
		t.sb.WriteString(t.dialect.NewLine)
	}
}

func (t *ticket) String() string {
	return t.sb.String()
}
