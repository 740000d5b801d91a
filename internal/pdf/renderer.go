// Package pdf renders invoice PDF artifacts. Artifacts are derived,
// cacheable files keyed by invoice number; they are never rows in the
// database and are regenerated only when absent or explicitly forced.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	companyName    = "Chain Sense"
	companyTagline = "Supply Chain Management Suite"
	companyAddress = "1st Floor, Tech Park Campus, Bengaluru, India"
	companyContact = "support@chainsense.io"
)

// Renderer produces invoice PDFs under a dedicated directory
type Renderer struct {
	dir     string
	log     zerolog.Logger
	renders atomic.Int64
}

func NewRenderer(dir string, log zerolog.Logger) *Renderer {
	return &Renderer{dir: dir, log: log.With().Str("component", "pdf").Logger()}
}

// Path returns the deterministic artifact location for an invoice number
func (r *Renderer) Path(invoiceNumber string) string {
	return filepath.Join(r.dir, fmt.Sprintf("invoice-%s.pdf", invoiceNumber))
}

// RenderCount reports how many full renders have happened, so callers and
// tests can observe that a cached artifact was served without re-rendering.
func (r *Renderer) RenderCount() int64 {
	return r.renders.Load()
}

// Ensure returns the artifact path, rendering it first if the file is
// absent or force is set. The PDF is written to a temporary file and moved
// into place only after the full document generated, so a failed render
// never leaves a corrupt artifact at the final path.
func (r *Renderer) Ensure(invoice *model.Invoice, force bool) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", apperror.Wrap(apperror.KindRender, err, "failed to create invoices directory")
	}

	path := r.Path(invoice.InvoiceNumber)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	doc, err := r.render(invoice)
	if err != nil {
		return "", apperror.Wrap(apperror.KindRender, err, "failed to render invoice %s", invoice.InvoiceNumber)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return "", apperror.Wrap(apperror.KindRender, err, "failed to write invoice %s", invoice.InvoiceNumber)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", apperror.Wrap(apperror.KindRender, err, "failed to finalize invoice %s", invoice.InvoiceNumber)
	}

	r.renders.Add(1)
	r.log.Info().Str("invoice_number", invoice.InvoiceNumber).Str("path", path).Msg("invoice PDF rendered")
	return path, nil
}

func (r *Renderer) render(invoice *model.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(8, companyName, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, "INVOICE", props.Text{Size: 14, Align: align.Right, Style: fontstyle.Bold}),
	)
	m.AddRow(6,
		text.NewCol(8, companyTagline, props.Text{Size: 9}),
		text.NewCol(4, invoice.InvoiceNumber, props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(5, text.NewCol(12, companyAddress+"  |  "+companyContact, props.Text{Size: 8}))
	m.AddRows(line.NewRow(4))

	dueDate := "N/A"
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format("02 Jan 2006")
	}
	status := invoice.Status
	if status == "" {
		status = model.InvoiceStatusUnpaid
	}

	m.AddRow(6,
		text.NewCol(3, "Issue Date", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.NewCol(3, "Due Date", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.NewCol(3, "Status", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.NewCol(3, "Amount Due", props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(3, invoice.IssueDate.Format("02 Jan 2006"), props.Text{Size: 9}),
		text.NewCol(3, dueDate, props.Text{Size: 9}),
		text.NewCol(3, status, props.Text{Size: 9}),
		text.NewCol(3, formatMoney(invoice.AmountDue), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRows(line.NewRow(4))

	billTo := invoice.BillingAddress
	vendorName := ""
	if invoice.Vendor != nil {
		vendorName = invoice.Vendor.Name
		if billTo == "" {
			billTo = invoice.Vendor.Address
		}
	}
	terms := invoice.Terms
	if terms == "" {
		terms = "Net 30"
	}
	m.AddRow(5, text.NewCol(6, "BILL TO", props.Text{Size: 8, Style: fontstyle.Bold}),
		text.NewCol(6, "REMIT TO", props.Text{Size: 8, Style: fontstyle.Bold}))
	m.AddRow(10,
		text.NewCol(6, vendorName+"\n"+billTo, props.Text{Size: 9}),
		text.NewCol(6, companyName+"\n"+companyAddress+"\nPayment Terms: "+terms, props.Text{Size: 9}),
	)
	m.AddRows(line.NewRow(4))

	m.AddRow(7,
		text.NewCol(6, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Unit Price", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Subtotal", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	items := invoice.Items
	if len(items) == 0 {
		items = []model.InvoiceItem{{
			Description: "No line items recorded",
		}}
	}
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatMoney(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatMoney(item.Subtotal), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRows(line.NewRow(4))

	m.AddRows(
		row.New(6).Add(
			col.New(8),
			text.NewCol(2, "Paid to Date", props.Text{Size: 9}),
			text.NewCol(2, formatMoney(invoice.AmountPaid), props.Text{Size: 9, Align: align.Right}),
		),
		row.New(7).Add(
			col.New(8),
			text.NewCol(2, "Balance", props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewCol(2, formatMoney(invoice.AmountRemaining()), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}),
		),
	)

	if invoice.Notes != "" {
		m.AddRow(5, text.NewCol(12, "Notes", props.Text{Size: 8, Style: fontstyle.Bold}))
		m.AddRow(8, text.NewCol(12, invoice.Notes, props.Text{Size: 8}))
	}
	m.AddRow(8, text.NewCol(12,
		fmt.Sprintf("Generated %s. For billing questions contact %s.", time.Now().Format("02 Jan 2006"), companyContact),
		props.Text{Size: 7}))

	document, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return document.GetBytes(), nil
}

func formatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
