package receipt

import (
	"fmt"
	"strings"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// StoreHeader is the fixed text at the top and bottom of every customer bill.
type StoreHeader struct {
	Name         string
	Tagline      string
	AddressLines []string
	FooterLines  []string
}

// Formatter renders invoices as thermal printer jobs. It has no side effects;
// the clock is injected so output is reproducible.
type Formatter struct {
	Dialect  Dialect
	Store    StoreHeader
	Location *time.Location
	Now      func() time.Time

	// QRBaseURL, when set, adds a QR code linking to the order status page.
	QRBaseURL string
	// QRScale is the number of printer dots per QR module.
	QRScale int
}

// NewFormatter returns a formatter using the wall clock.
func NewFormatter(dialect Dialect, store StoreHeader, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{
		Dialect:  dialect,
		Store:    store,
		Location: loc,
		Now:      time.Now,
		QRScale:  4,
	}
}

func (f *Formatter) now() time.Time {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// Bill renders the customer bill.
func (f *Formatter) Bill(inv models.Invoice) string {
	d := f.Dialect
	t := &ticket{dialect: d}

	t.cmd(d.Init)

	// Pickup number first so it is the first thing torn off.
	t.cmd(d.AlignCenter)
	t.cmd(d.BoldOn)
	t.line("ORDER NO")
	t.cmd(d.DoubleOn)
	t.line(inv.OrderNumber)
	t.cmd(d.DoubleOff)
	t.cmd(d.BoldOff)
	t.blank(1)
	t.cmd(d.AlignLeft)

	t.blank(topMarginLines)

	t.cmd(d.AlignCenter)
	t.cmd(d.DoubleOn)
	t.cmd(d.BoldOn)
	t.line(f.Store.Name)
	t.cmd(d.DoubleOff)
	t.cmd(d.BoldOff)
	if f.Store.Tagline != "" {
		t.line(f.Store.Tagline)
	}
	t.cmd(d.AlignLeft)
	t.blank(1)

	t.cmd(d.AlignCenter)
	for _, l := range f.Store.AddressLines {
		t.line(l)
	}
	t.cmd(d.AlignLeft)
	t.line(leftPadding + contentRule)

	t.line(leftPadding + "Order No : " + inv.OrderNumber)
	t.line(leftPadding + "Date     : " + f.now().Format("2006-01-02 15:04"))
	t.line(leftPadding + contentRule)

	t.cmd(d.BoldOn)
	t.line(leftPadding +
		padRight("Item", itemColWidth) +
		padLeft("Qty", qtyColWidth) +
		padLeft("Rate", rateColWidth) +
		padLeft("Amt", amountColWidth))
	t.cmd(d.BoldOff)
	t.line(leftPadding + contentRule)

	subTotal := decimal.Zero
	for _, item := range inv.Items {
		amount := item.Amount()
		subTotal = subTotal.Add(amount)

		wrapped := wrapText(item.Name, itemColWidth)
		for i, part := range wrapped {
			if i < len(wrapped)-1 {
				t.line(leftPadding + padRight(part, itemColWidth))
				continue
			}
			t.line(leftPadding +
				padRight(part, itemColWidth) +
				padLeft(fmt.Sprintf("%d", item.Qty), qtyColWidth) +
				padLeft(formatMoney(item.Price), rateColWidth) +
				padLeft(formatMoney(amount), amountColWidth))
		}
		t.blank(1)
	}
	t.line(leftPadding + contentRule)

	discount := subTotal.Sub(inv.Total)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	t.line(leftPadding + padRight("Sub Total", totalsLabelWidth) + padLeft(formatMoney(subTotal), totalsValueWidth))
	t.line(leftPadding + padRight("Discount", totalsLabelWidth) + padLeft(formatMoney(discount), totalsValueWidth))
	t.line(leftPadding + contentRule)

	t.cmd(d.BoldOn)
	t.line(leftPadding + padRight("GRAND TOTAL", totalsLabelWidth) + padLeft(formatMoney(inv.Total), totalsValueWidth))
	t.cmd(d.BoldOff)

	t.blank(1)
	t.cmd(d.AlignCenter)
	for _, l := range f.Store.FooterLines {
		t.line(l)
	}
	if qr := f.statusQR(inv.OrderNumber); qr != "" {
		t.cmd(qr)
		t.blank(1)
	}
	t.cmd(d.AlignLeft)

	t.blank(bottomMarginLines)
	t.cmd(d.Cut)

	return t.String()
}

// KitchenTicket renders the KOT: order number, time, item names and quantities.
func (f *Formatter) KitchenTicket(inv models.Invoice) string {
	d := f.Dialect
	t := &ticket{dialect: d}

	t.cmd(d.Init)
	t.cmd(d.AlignCenter)

	t.cmd(d.DoubleOn)
	t.cmd(d.BoldOn)
	t.line("KITCHEN ORDER")
	t.cmd(d.DoubleOff)
	t.cmd(d.BoldOff)
	t.blank(1)

	t.cmd(d.BoldOn)
	t.line("ORDER NO")
	t.cmd(d.DoubleOn)
	t.line(inv.OrderNumber)
	t.cmd(d.DoubleOff)
	t.cmd(d.BoldOff)

	t.cmd(d.BoldOn)
	t.line("Time    : " + f.now().Format("15:04"))
	t.cmd(d.BoldOff)
	t.line(kotRule)

	t.cmd(d.BoldOn)
	for _, item := range inv.Items {
		t.line(strings.ToUpper(item.Name))
		t.line(fmt.Sprintf("  QTY: %d", item.Qty))
		t.blank(1)
	}
	t.cmd(d.BoldOff)
	t.line(kotRule)

	t.cmd(d.BoldOn)
	t.line("*** KOT COPY ***")
	t.cmd(d.BoldOff)

	t.blank(4)
	t.cmd(d.Cut)

	return t.String()
}

// statusQR encodes the order status link as a raster image, or "" when
// disabled, unsupported by the dialect, or not encodable.
func (f *Formatter) statusQR(orderNumber string) Command {
	if f.QRBaseURL == "" || f.Dialect.Raster == nil || orderNumber == "" {
		return ""
	}
	code, err := qrcode.New(fmt.Sprintf("%s/status?order=%s", strings.TrimRight(f.QRBaseURL, "/"), orderNumber), qrcode.Medium)
	if err != nil {
		return ""
	}
	scale := f.QRScale
	if scale < 1 {
		scale = 1
	}
	return f.Dialect.Raster(scaleBitmap(code.Bitmap(), scale))
}

func scaleBitmap(src [][]bool, scale int) [][]bool {
	out := make([][]bool, 0, len(src)*scale)
	for _, row := range src {
		scaled := make([]bool, 0, len(row)*scale)
		for _, dot := range row {
			for i := 0; i < scale; i++ {
				scaled = append(scaled, dot)
			}
		}
		for i := 0; i < scale; i++ {
			out = append(out, scaled)
		}
	}
	return out
}
