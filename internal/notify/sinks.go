package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
)

// LogSink writes events to the structured log
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(ctx context.Context, ev *domain.Event) error {
	logger.InfoContext(ctx, "Inventory event",
		"event_id", ev.ID,
		"event_type", ev.Type,
		"equipment_id", ev.EquipmentID,
		"transaction_id", ev.TransactionID,
		"available", ev.Available,
		"days_overdue", ev.DaysOverdue)
	return nil
}

// EmailSink mails staff through SendGrid
type EmailSink struct {
	client     *sendgrid.Client
	fromEmail  string
	fromName   string
	staffEmail string
}

func NewEmailSink(apiKey, fromEmail, fromName, staffEmail string) *EmailSink {
	return &EmailSink{
		client:     sendgrid.NewSendClient(apiKey),
		fromEmail:  fromEmail,
		fromName:   fromName,
		staffEmail: staffEmail,
	}
}

func (s *EmailSink) Name() string { return "sendgrid" }

func (s *EmailSink) Send(ctx context.Context, ev *domain.Event) error {
	response, err := s.client.SendWithContext(ctx, s.buildMessage(ev))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *EmailSink) buildMessage(ev *domain.Event) *mail.SGMailV3 {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("Equipment staff", s.staffEmail)
	plain := eventBody(ev)
	html := "<p>" + strings.ReplaceAll(plain, "\n", "<br>") + "</p>"
	return mail.NewSingleEmail(from, ev.Title(), to, plain, html)
}

func eventBody(ev *domain.Event) string {
	switch ev.Type {
	case domain.EventLowStockReached:
		return fmt.Sprintf("Equipment %s is now %s.\nUnits available: %d", ev.EquipmentID, ev.Status, ev.Available)
	case domain.EventReturnOverdue:
		return fmt.Sprintf("Transaction %d for equipment %s is %d day(s) overdue.\nBorrower: %s",
			ev.TransactionID, ev.EquipmentID, ev.DaysOverdue, ev.ActorID)
	case domain.EventBorrowAwaitingApproval:
		return fmt.Sprintf("Transaction %d for equipment %s is waiting for approval.\nRequested by: %s",
			ev.TransactionID, ev.EquipmentID, ev.ActorID)
	}
	return fmt.Sprintf("%s for equipment %s", ev.Type, ev.EquipmentID)
}

// publisher is the subset of *amqp.Channel the sink uses
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events as JSON on a topic exchange
type AMQPSink struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
}

func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Send(ctx context.Context, ev *domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.ch.PublishWithContext(ctx, s.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	})
}

func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// RoutingKey is "inventory.<event type>" in lower case
func RoutingKey(ev *domain.Event) string {
	return "inventory." + strings.ToLower(string(ev.Type))
}
