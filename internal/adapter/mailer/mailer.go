package mailer

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/domain/model"
)

// Notifier informs customers about settled orders.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *model.Order) error
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Options configures SMTPNotifier.
type Options struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
	Timeout     time.Duration
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<h1>Thank you for your order, {{.Name}}!</h1>
<p>Order <strong>#{{.ShortID}}</strong> has been paid.</p>
<table>
{{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.Quantity}} &times; {{.Price}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{.Total}}</strong></p>
<p>Your files are ready: <a href="{{.DownloadURL}}">{{.DownloadURL}}</a></p>
</body>
</html>
`))

type confirmationData struct {
	Name        string
	ShortID     string
	Items       []model.OrderItem
	Total       string
	DownloadURL string
}

// SMTPNotifier sends confirmation e-mails through an SMTP relay.
type SMTPNotifier struct {
	client      sender
	from        string
	frontendURL string
	logger      *slog.Logger
}

// NewSMTPNotifier builds an SMTP client with opportunistic TLS and optional
// plain authentication.
func NewSMTPNotifier(opts Options, logger *slog.Logger) (*SMTPNotifier, error) {
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, mail.WithTimeout(opts.Timeout))
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPNotifier{client: client, from: opts.From, frontendURL: opts.FrontendURL, logger: logger}, nil
}

func (n *SMTPNotifier) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	msg, err := n.buildConfirmation(order)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send confirmation: %w", domainErrors.ErrUpstream, err)
	}
	n.logger.Info("order confirmation sent", slog.String("order_id", order.ID))
	return nil
}

func (n *SMTPNotifier) buildConfirmation(order *model.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(order.CustomerEmail); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(Subject(order.ID))

	data := confirmationData{
		Name:        order.CustomerName,
		ShortID:     shortID(order.ID),
		Items:       order.Items,
		Total:       order.Total.StringFixed(2),
		DownloadURL: DownloadPageURL(n.frontendURL, order.ID),
	}
	if err := msg.SetBodyHTMLTemplate(confirmationTemplate, data); err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextPlain, fmt.Sprintf(
		"Order #%s has been paid. Total: %s. Download your files at %s",
		data.ShortID, data.Total, data.DownloadURL,
	))
	return msg, nil
}

// LogNotifier records confirmations in the log when SMTP is not configured.
type LogNotifier struct {
	frontendURL string
	logger      *slog.Logger
}

// NewLogNotifier creates LogNotifier.
func NewLogNotifier(frontendURL string, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{frontendURL: frontendURL, logger: logger}
}

func (n *LogNotifier) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	n.logger.Info("email not configured, skipping order confirmation",
		slog.String("order_id", order.ID),
		slog.String("download_url", DownloadPageURL(n.frontendURL, order.ID)),
	)
	return nil
}

// Subject returns the confirmation subject line.
func Subject(orderID string) string {
	return "Confirmation of Order #" + shortID(orderID)
}

// DownloadPageURL points at the storefront page listing an order's files.
func DownloadPageURL(frontendURL, orderID string) string {
	return frontendURL + "/downloads/" + orderID
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
