package mailer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/cenkalti/backoff/v4"

	"shopcore/internal/domain"
)

// Mailer sends transactional storefront email. Sending is best-effort; the
// order flow never fails because an email did not go out.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, o domain.Order) error
	SendOrderStatusUpdate(ctx context.Context, o domain.Order) error
}

// SESMailer sends through AWS SESv2 with exponential-backoff retries.
type SESMailer struct {
	client    *sesv2.Client
	fromEmail string
	storeName string
	logger    *log.Logger
}

func NewSES(cfg aws.Config, fromEmail, storeName string, logger *log.Logger) *SESMailer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SESMailer{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		storeName: storeName,
		logger:    logger,
	}
}

func (m *SESMailer) SendOrderConfirmation(ctx context.Context, o domain.Order) error {
	subject := fmt.Sprintf("%s: order %s confirmed", m.storeName, o.Number)
	return m.send(ctx, o.Email, subject, confirmationBody(o))
}

func (m *SESMailer) SendOrderStatusUpdate(ctx context.Context, o domain.Order) error {
	subject := fmt.Sprintf("%s: order %s is now %s", m.storeName, o.Number, o.Status)
	body := fmt.Sprintf("Hello,\n\nYour order %s is now %s.\n\nThank you for shopping with %s.\n",
		o.Number, o.Status, m.storeName)
	return m.send(ctx, o.Email, subject, body)
}

func (m *SESMailer) send(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.fromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	b.MaxInterval = 5 * time.Second

	err := backoff.Retry(func() error {
		_, err := m.client.SendEmail(ctx, input)
		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		m.logger.Printf("mailer: send to=%s subject=%q error=%v", to, subject, err)
		return err
	}
	m.logger.Printf("mailer: sent to=%s subject=%q", to, subject)
	return nil
}

func confirmationBody(o domain.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello,\n\nWe received your order %s.\n\n", o.Number)
	for _, item := range o.Items {
		fmt.Fprintf(&sb, "  %dx %s - %s\n", item.Quantity, item.Name, formatCents(item.TotalCents, o.Currency))
	}
	fmt.Fprintf(&sb, "\nSubtotal: %s\n", formatCents(o.SubtotalCents, o.Currency))
	fmt.Fprintf(&sb, "Shipping: %s\n", formatCents(o.ShippingCents, o.Currency))
	fmt.Fprintf(&sb, "Total:    %s\n", formatCents(o.TotalCents, o.Currency))
	return sb.String()
}

func formatCents(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.TrimSpace(currency))
}

// Noop satisfies Mailer when no sender is configured (local development,
// tests). It only logs.
type Noop struct {
	Logger *log.Logger
}

func (n Noop) SendOrderConfirmation(_ context.Context, o domain.Order) error {
	if n.Logger != nil {
		n.Logger.Printf("mailer (noop): order confirmation for %s to %s", o.Number, o.Email)
	}
	return nil
}

func (n Noop) SendOrderStatusUpdate(_ context.Context, o domain.Order) error {
	if n.Logger != nil {
		n.Logger.Printf("mailer (noop): status update %s for %s to %s", o.Status, o.Number, o.Email)
	}
	return nil
}
