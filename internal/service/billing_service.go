package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/pdf"
	"github.com/chainsense/backend/internal/repository"
	"github.com/chainsense/backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultNetTermsDays = 30

// DTOs
type InvoiceItemRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
}

type CreateInvoiceRequest struct {
	VendorID       string               `json:"vendor_id" binding:"required"`
	Items          []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	DueDate        *time.Time           `json:"due_date"`
	BillingAddress string               `json:"billing_address"`
	Terms          string               `json:"terms"`
	Notes          string               `json:"notes"`
}

type RecordPaymentRequest struct {
	Amount      float64    `json:"amount" binding:"required"`
	PaymentDate *time.Time `json:"payment_date"`
	Method      string     `json:"method"`
	Reference   string     `json:"reference"`
	Notes       string     `json:"notes"`
}

// InvoiceView wraps an invoice with the derived fields clients render
type InvoiceView struct {
	model.Invoice
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	Overdue         bool            `json:"is_overdue"`
}

// GenerateResult reports how an automatic generation attempt resolved.
// Exactly one of Created and AlreadyExisted is true on success.
type GenerateResult struct {
	Created        bool           `json:"created"`
	AlreadyExisted bool           `json:"already_existed"`
	Invoice        *model.Invoice `json:"invoice,omitempty"`
}

type BillingService interface {
	// GenerateForOrder creates the invoice for a completed purchase order
	// exactly once. Repeat calls for the same order return the existing
	// invoice with AlreadyExisted set, whether the repeat is sequential or
	// a concurrent race resolved by the storage layer.
	GenerateForOrder(ctx context.Context, order *model.PurchaseOrder, actorID uuid.UUID) (*GenerateResult, error)

	CreateInvoice(ctx context.Context, actorID uuid.UUID, req CreateInvoiceRequest) (*InvoiceView, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceView, error)
	ListInvoices(ctx context.Context, filter repository.InvoiceListFilter) ([]InvoiceView, int64, error)
	RecordPayment(ctx context.Context, invoiceID, actorID uuid.UUID, req RecordPaymentRequest) (*InvoiceView, error)
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error)

	// EnsurePDF returns the path of the invoice's PDF artifact, rendering
	// it when absent or when force is set.
	EnsurePDF(ctx context.Context, invoiceID uuid.UUID, force bool) (string, *model.Invoice, error)
}

type billingService struct {
	invoiceRepo   repository.InvoiceRepository
	vendorRepo    repository.VendorRepository
	txManager     repository.TransactionManager
	renderer      *pdf.Renderer
	notifications NotificationService
	log           zerolog.Logger
}

func NewBillingService(
	invoiceRepo repository.InvoiceRepository,
	vendorRepo repository.VendorRepository,
	txManager repository.TransactionManager,
	renderer *pdf.Renderer,
	notifications NotificationService,
	log zerolog.Logger,
) BillingService {
	return &billingService{
		invoiceRepo:   invoiceRepo,
		vendorRepo:    vendorRepo,
		txManager:     txManager,
		renderer:      renderer,
		notifications: notifications,
		log:           log.With().Str("component", "billing").Logger(),
	}
}

var firstNumber = regexp.MustCompile(`\d+`)

// termsDays extracts the net day count from free-text payment terms such
// as "Net 45" or "due in 15 days". Unparseable terms default to 30.
func termsDays(terms string) int {
	match := firstNumber.FindString(terms)
	if match == "" {
		return defaultNetTermsDays
	}
	days, err := strconv.Atoi(match)
	if err != nil || days <= 0 {
		return defaultNetTermsDays
	}
	return days
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(strings.ToUpper(msg), "UNIQUE")
}

func (s *billingService) GenerateForOrder(ctx context.Context, order *model.PurchaseOrder, actorID uuid.UUID) (*GenerateResult, error) {
	// Fast path: an invoice already covers this order
	existing, err := s.invoiceRepo.FindByPOID(ctx, order.ID)
	if err == nil && existing != nil {
		return &GenerateResult{AlreadyExisted: true, Invoice: existing}, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to check for existing invoice")
	}

	vendor := order.Vendor
	if vendor == nil {
		vendor, err = s.vendorRepo.FindByID(ctx, order.VendorID)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load vendor for order %s", order.PONumber)
		}
	}

	dueDate := time.Now().AddDate(0, 0, termsDays(vendor.PaymentTerms))
	poID := order.ID
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		actor = &actorID
	}

	invoice := model.Invoice{
		InvoiceNumber:  mintInvoiceNumber(),
		POID:           &poID,
		VendorID:       order.VendorID,
		AmountDue:      order.TotalAmount,
		AmountPaid:     decimal.Zero,
		Status:         model.InvoiceStatusUnpaid,
		IssueDate:      time.Now(),
		DueDate:        &dueDate,
		BillingAddress: vendor.Address,
		Terms:          vendor.PaymentTerms,
		Notes:          "Auto-generated on completion of purchase order " + order.PONumber,
		CreatedBy:      actor,
	}

	txErr := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return err
		}
		for _, line := range s.buildLines(order) {
			line.InvoiceID = invoice.ID
			if err := s.invoiceRepo.CreateItem(txCtx, &line); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if isDuplicateErr(txErr) {
			// Lost a concurrent race on the po_id unique index. The winner's
			// invoice is the one that counts.
			winner, findErr := s.invoiceRepo.FindByPOID(ctx, order.ID)
			if findErr == nil && winner != nil {
				return &GenerateResult{AlreadyExisted: true, Invoice: winner}, nil
			}
		}
		return nil, apperror.Wrap(apperror.KindStorage, txErr, "failed to generate invoice for order %s", order.PONumber)
	}

	s.log.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("po_number", order.PONumber).
		Str("amount_due", invoice.AmountDue.StringFixed(2)).
		Msg("invoice generated")

	// PDF and vendor email are conveniences. The invoice row is the source
	// of truth either way, so render failures are logged and dropped.
	full, err := s.invoiceRepo.FindByIDWithDetails(ctx, invoice.ID)
	if err != nil {
		full = &invoice
	}
	pdfPath := ""
	if path, err := s.renderer.Ensure(full, false); err != nil {
		s.log.Warn().Err(err).Str("invoice_number", invoice.InvoiceNumber).Msg("invoice PDF render failed")
	} else {
		pdfPath = path
	}
	s.notifications.InvoiceGenerated(ctx, full, vendor, pdfPath)

	return &GenerateResult{Created: true, Invoice: full}, nil
}

// buildLines converts order line items into invoice lines. An order with
// no recorded items still invoices its full total through one synthetic
// line, so the amount due never silently drops to zero.
func (s *billingService) buildLines(order *model.PurchaseOrder) []model.InvoiceItem {
	if len(order.Items) == 0 {
		return []model.InvoiceItem{{
			Description: "Purchase order " + order.PONumber,
			Quantity:    1,
			UnitPrice:   order.TotalAmount,
			Subtotal:    order.TotalAmount,
		}}
	}

	lines := make([]model.InvoiceItem, 0, len(order.Items))
	for _, item := range order.Items {
		description := "Item " + item.ItemID.String()
		if item.Item != nil {
			description = item.Item.Name
		}
		lines = append(lines, model.InvoiceItem{
			Description: description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return lines
}

func (s *billingService) CreateInvoice(ctx context.Context, actorID uuid.UUID, req CreateInvoiceRequest) (*InvoiceView, error) {
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid vendor_id")
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "vendor not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load vendor")
	}

	total := decimal.Zero
	lines := make([]model.InvoiceItem, 0, len(req.Items))
	for _, item := range req.Items {
		unitPrice := decimal.NewFromFloat(item.UnitPrice)
		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		lines = append(lines, model.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Subtotal:    subtotal,
		})
	}

	terms := req.Terms
	if terms == "" {
		terms = vendor.PaymentTerms
	}
	dueDate := req.DueDate
	if dueDate == nil {
		d := time.Now().AddDate(0, 0, termsDays(terms))
		dueDate = &d
	}
	billingAddress := req.BillingAddress
	if billingAddress == "" {
		billingAddress = vendor.Address
	}
	var actor *uuid.UUID
	if actorID != uuid.Nil {
		actor = &actorID
	}

	invoice := model.Invoice{
		InvoiceNumber:  mintInvoiceNumber(),
		VendorID:       vendorID,
		AmountDue:      total,
		AmountPaid:     decimal.Zero,
		Status:         model.InvoiceStatusUnpaid,
		IssueDate:      time.Now(),
		DueDate:        dueDate,
		BillingAddress: billingAddress,
		Terms:          terms,
		Notes:          req.Notes,
		CreatedBy:      actor,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, &invoice); err != nil {
			return err
		}
		for _, line := range lines {
			line.InvoiceID = invoice.ID
			if err := s.invoiceRepo.CreateItem(txCtx, &line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to create invoice")
	}

	return s.GetInvoice(ctx, invoice.ID)
}

func (s *billingService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceView, error) {
	invoice, err := s.invoiceRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "invoice not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load invoice")
	}
	return newInvoiceView(invoice), nil
}

func (s *billingService) ListInvoices(ctx context.Context, filter repository.InvoiceListFilter) ([]InvoiceView, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	invoices, total, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, err, "failed to list invoices")
	}

	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		views = append(views, *newInvoiceView(&invoices[i]))
	}
	return views, total, nil
}

func (s *billingService) RecordPayment(ctx context.Context, invoiceID, actorID uuid.UUID, req RecordPaymentRequest) (*InvoiceView, error) {
	amount := decimal.NewFromFloat(req.Amount)
	if !amount.IsPositive() {
		return nil, apperror.New(apperror.KindValidation, "payment amount must be positive")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(txCtx, invoiceID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(apperror.KindNotFound, "invoice not found")
			}
			return apperror.Wrap(apperror.KindStorage, err, "failed to lock invoice")
		}

		remaining := invoice.AmountRemaining()
		if amount.GreaterThan(remaining) {
			return apperror.New(apperror.KindConflict,
				"payment of $%s exceeds remaining balance of $%s", amount.StringFixed(2), remaining.StringFixed(2))
		}

		paymentDate := time.Now()
		if req.PaymentDate != nil {
			paymentDate = *req.PaymentDate
		}
		var actor *uuid.UUID
		if actorID != uuid.Nil {
			actor = &actorID
		}
		payment := model.Payment{
			InvoiceID:   invoice.ID,
			Amount:      amount,
			PaymentDate: paymentDate,
			Method:      req.Method,
			Reference:   req.Reference,
			Notes:       req.Notes,
			RecordedBy:  actor,
		}
		if err := s.invoiceRepo.CreatePayment(txCtx, &payment); err != nil {
			return apperror.Wrap(apperror.KindStorage, err, "failed to record payment")
		}

		invoice.AmountPaid = invoice.AmountPaid.Add(amount)
		invoice.Status = invoice.DeriveStatus()
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return apperror.Wrap(apperror.KindStorage, err, "failed to update invoice totals")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("invoice_number", view.InvoiceNumber).
		Str("amount", amount.StringFixed(2)).
		Str("status", view.Status).
		Msg("payment recorded")
	return view, nil
}

func (s *billingService) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.Payment, error) {
	if _, err := s.invoiceRepo.FindByID(ctx, invoiceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.KindNotFound, "invoice not found")
		}
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to load invoice")
	}
	payments, err := s.invoiceRepo.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to list payments")
	}
	return payments, nil
}

func (s *billingService) EnsurePDF(ctx context.Context, invoiceID uuid.UUID, force bool) (string, *model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDWithDetails(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperror.New(apperror.KindNotFound, "invoice not found")
		}
		return "", nil, apperror.Wrap(apperror.KindStorage, err, "failed to load invoice")
	}

	path, err := s.renderer.Ensure(invoice, force)
	if err != nil {
		return "", nil, err
	}
	return path, invoice, nil
}

func newInvoiceView(invoice *model.Invoice) *InvoiceView {
	return &InvoiceView{
		Invoice:         *invoice,
		AmountRemaining: invoice.AmountRemaining(),
		Overdue:         invoice.IsOverdue(time.Now()),
	}
}
