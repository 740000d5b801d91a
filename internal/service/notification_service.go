package service

import (
	"context"
	"fmt"

	"github.com/chainsense/backend/internal/mailer"
	"github.com/chainsense/backend/internal/model"
	"github.com/chainsense/backend/internal/repository"
	ws "github.com/chainsense/backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NotificationService persists observational records and fans them out to
// connected clients, email and SMS. Every delivery channel is best-effort:
// a failed notification is logged and never propagated to the business
// operation that raised it.
type NotificationService interface {
	Notify(ctx context.Context, n *model.Notification)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	OrderCreated(ctx context.Context, order *model.PurchaseOrder, vendor *model.Vendor)
	OrderStatusChanged(ctx context.Context, order *model.PurchaseOrder, previous, next string)
	LowStock(ctx context.Context, item *model.InventoryItem)
	InvoiceGenerated(ctx context.Context, invoice *model.Invoice, vendor *model.Vendor, pdfPath string)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	hub              *ws.Hub
	mail             mailer.Mailer
	sms              mailer.SMSSender
	log              zerolog.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	hub *ws.Hub,
	mail mailer.Mailer,
	sms mailer.SMSSender,
	log zerolog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		hub:              hub,
		mail:             mail,
		sms:              sms,
		log:              log.With().Str("component", "notifications").Logger(),
	}
}

// Notify persists the record and pushes it to connected clients. Failures
// are logged, not returned; callers must never depend on delivery.
func (s *notificationService) Notify(ctx context.Context, n *model.Notification) {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.log.Error().Err(err).Str("title", n.Title).Msg("failed to persist notification")
		return
	}
	if s.hub != nil {
		s.hub.Publish("notification", n)
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notificationRepo.ListForUser(ctx, userID, unreadOnly, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// OrderCreated records the broadcast notification and emails the vendor
func (s *notificationService) OrderCreated(ctx context.Context, order *model.PurchaseOrder, vendor *model.Vendor) {
	s.Notify(ctx, OrderCreatedNotification(order, vendor))

	if vendor != nil && vendor.Email != "" {
		go s.sendMail(mailer.Message{
			To:       []string{vendor.Email},
			Subject:  fmt.Sprintf("New Purchase Order %s", order.PONumber),
			HTMLBody: orderCreatedEmail(order, vendor),
		})
	}
}

// OrderStatusChanged records the transition for everybody and, for
// completions, pings the vendor over SMS when a phone number is on file.
func (s *notificationService) OrderStatusChanged(ctx context.Context, order *model.PurchaseOrder, previous, next string) {
	s.Notify(ctx, StatusChangeNotification(order, previous, next))

	if next == model.POStatusCompleted && order.Vendor != nil && order.Vendor.Phone != "" {
		phone := order.Vendor.Phone
		number := order.PONumber
		go func() {
			if err := s.sms.SendSMS(phone, fmt.Sprintf("Chain Sense: purchase order %s has been completed.", number)); err != nil {
				s.log.Warn().Err(err).Str("po_number", number).Msg("sms delivery failed")
			}
		}()
	}
}

func (s *notificationService) LowStock(ctx context.Context, item *model.InventoryItem) {
	s.Notify(ctx, LowStockNotification(item))

	// Alert admins and managers by email so restocking does not depend on
	// somebody watching the dashboard.
	users, err := s.userRepo.ListByRoles(ctx, model.RoleAdmin, model.RoleManager)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list recipients for low stock alert")
		return
	}
	recipients := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			recipients = append(recipients, u.Email)
		}
	}
	if len(recipients) == 0 {
		return
	}
	go s.sendMail(mailer.Message{
		To:       recipients,
		Subject:  fmt.Sprintf("Low Stock Alert: %s", item.Name),
		HTMLBody: lowStockEmail(item),
	})
}

func (s *notificationService) InvoiceGenerated(ctx context.Context, invoice *model.Invoice, vendor *model.Vendor, pdfPath string) {
	s.Notify(ctx, InvoiceGeneratedNotification(invoice, vendor))

	if vendor == nil || vendor.Email == "" {
		return
	}
	msg := mailer.Message{
		To:       []string{vendor.Email},
		Subject:  fmt.Sprintf("Invoice %s Pending Payment", invoice.InvoiceNumber),
		HTMLBody: invoicePendingEmail(invoice, vendor),
	}
	if pdfPath != "" {
		msg.Attachments = []string{pdfPath}
	}
	go s.sendMail(msg)
}

func (s *notificationService) sendMail(msg mailer.Message) {
	if err := s.mail.Send(msg); err != nil {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("email delivery failed")
	}
}
