package services

import (
	"context"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/printing"
	"restaurant_pos_backend/internal/receipt"
	"restaurant_pos_backend/pkg/utils"
)

// Receipt formats accepted by the preview endpoint.
const (
	ReceiptFormatBill = "bill"
	ReceiptFormatKOT  = "kot"
)

// PrintSettings names the printer queues and copy policy.
type PrintSettings struct {
	BillPrinter    string
	KitchenPrinter string
	// ReferenceCopy prints a second customer bill for the cashier's records.
	ReferenceCopy bool
}

// PrintService renders invoices and hands them to the print transport.
// The Print* methods never fail; they report whether every job was accepted.
type PrintService interface {
	PrintOrderTickets(ctx context.Context, invoice models.Invoice) bool
	PrintBill(ctx context.Context, invoice models.Invoice) bool
	Reprint(ctx context.Context, invoice models.Invoice, kot bool) error
	Render(invoice models.Invoice, format string) (string, error)
}

type printService struct {
	formatter *receipt.Formatter
	transport printing.Transport
	settings  PrintSettings
}

// NewPrintService wires the formatter to a transport. A nil formatter renders
// plain text in UTC; a nil transport logs and drops jobs.
func NewPrintService(formatter *receipt.Formatter, transport printing.Transport, settings PrintSettings) PrintService {
	if formatter == nil {
		formatter = receipt.NewFormatter(receipt.Plain, receipt.StoreHeader{}, time.UTC)
	}
	if transport == nil {
		transport = printing.LogTransport{}
	}
	return &printService{formatter: formatter, transport: transport, settings: settings}
}

// PrintOrderTickets is the counter flow: customer bill, kitchen ticket, then
// the reference copy of the bill.
func (s *printService) PrintOrderTickets(ctx context.Context, invoice models.Invoice) bool {
	bill := s.formatter.Bill(invoice)
	ok := s.send(ctx, s.settings.BillPrinter, bill, invoice)
	ok = s.send(ctx, s.settings.KitchenPrinter, s.formatter.KitchenTicket(invoice), invoice) && ok
	if s.settings.ReferenceCopy {
		ok = s.send(ctx, s.settings.BillPrinter, bill, invoice) && ok
	}
	return ok
}

// PrintBill is the settlement flow: customer bill and reference copy.
func (s *printService) PrintBill(ctx context.Context, invoice models.Invoice) bool {
	bill := s.formatter.Bill(invoice)
	ok := s.send(ctx, s.settings.BillPrinter, bill, invoice)
	if s.settings.ReferenceCopy {
		ok = s.send(ctx, s.settings.BillPrinter, bill, invoice) && ok
	}
	return ok
}

// Reprint sends a single bill or kitchen ticket and reports transport errors.
func (s *printService) Reprint(ctx context.Context, invoice models.Invoice, kot bool) error {
	printer, text := s.settings.BillPrinter, s.formatter.Bill(invoice)
	if kot {
		printer, text = s.settings.KitchenPrinter, s.formatter.KitchenTicket(invoice)
	}
	return s.transport.Send(ctx, printer, []byte(text))
}

func (s *printService) Render(invoice models.Invoice, format string) (string, error) {
	switch format {
	case "", ReceiptFormatBill:
		return s.formatter.Bill(invoice), nil
	case ReceiptFormatKOT:
		return s.formatter.KitchenTicket(invoice), nil
	default:
		return "", fmt.Errorf("%w: unknown receipt format %q (want %s or %s)", ErrValidation, format, ReceiptFormatBill, ReceiptFormatKOT)
	}
}

func (s *printService) send(ctx context.Context, printer, text string, invoice models.Invoice) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.transport.Send(ctx, printer, []byte(text)); err != nil {
		utils.LogWarn(err, "Print job not delivered", map[string]interface{}{
			"printer":      printer,
			"order_id":     invoice.OrderID,
			"order_number": invoice.OrderNumber,
		})
		return false
	}
	return true
}
