package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shestoi/railbook/internal/event"
)

//go:embed templates/*.html
var templateFS embed.FS

// Rendered is the content of one notification.
type Rendered struct {
	Title   string
	Message string
	Subject string
	HTML    string
}

type templateData struct {
	Name       string
	BookingURL string
	Data       map[string]string
}

type textTemplates struct {
	subject string
	title   string
	message string
}

var texts = map[string]textTemplates{
	event.TemplateBookingConfirmation: {
		subject: "Booking Confirmation - Booking #{{.Data.booking_id}}",
		title:   "Booking confirmed",
		message: "Your booking {{.Data.booking_id}} for seats {{.Data.seats}} is confirmed.",
	},
	event.TemplatePaymentConfirmation: {
		subject: "Payment Received - Booking #{{.Data.booking_id}}",
		title:   "Payment received",
		message: "We received {{.Data.total_amount}} for booking {{.Data.booking_id}}.",
	},
	event.TemplateBookingCancellation: {
		subject: "Booking Cancellation - Booking #{{.Data.booking_id}}",
		title:   "Booking cancelled",
		message: "Your booking {{.Data.booking_id}} has been cancelled.{{if eq .Data.refunded \"true\"}} A refund of {{.Data.total_amount}} is on its way.{{end}}",
	},
	event.TemplateJourneyReminder: {
		subject: "Journey Reminder - {{.Data.train_name}}",
		title:   "Upcoming journey",
		message: "Your train {{.Data.train_name}} from {{.Data.from}} to {{.Data.to}} departs at {{.Data.departure_time}}.",
	},
}

type compiled struct {
	subject *texttemplate.Template
	title   *texttemplate.Template
	message *texttemplate.Template
	html    *htmltemplate.Template
}

// Renderer turns notification events into in-app text and email HTML.
type Renderer struct {
	frontendURL string
	templates   map[string]compiled
}

// NewRenderer parses the embedded templates.
func NewRenderer(frontendURL string) (*Renderer, error) {
	r := &Renderer{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		templates:   make(map[string]compiled, len(texts)),
	}
	for name, t := range texts {
		var c compiled
		var err error
		if c.subject, err = parseText(name+".subject", t.subject); err != nil {
			return nil, err
		}
		if c.title, err = parseText(name+".title", t.title); err != nil {
			return nil, err
		}
		if c.message, err = parseText(name+".message", t.message); err != nil {
			return nil, err
		}
		c.html, err = htmltemplate.New(name+".html").Option("missingkey=zero").ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.templates[name] = c
	}
	return r, nil
}

func parseText(name, text string) (*texttemplate.Template, error) {
	t, err := texttemplate.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	return t, nil
}

// Render fills the named template. Unknown templates are an error.
func (r *Renderer) Render(template, recipientName string, data map[string]string) (Rendered, error) {
	c, ok := r.templates[template]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown template %q", template)
	}

	td := templateData{Name: recipientName, Data: data}
	if td.Data == nil {
		td.Data = map[string]string{}
	}
	if id := td.Data["booking_id"]; id != "" {
		td.BookingURL = fmt.Sprintf("%s/bookings/%s", r.frontendURL, id)
	}
	if td.Name == "" {
		td.Name = "traveller"
	}

	var out Rendered
	var err error
	if out.Subject, err = execText(c.subject, td); err != nil {
		return Rendered{}, err
	}
	if out.Title, err = execText(c.title, td); err != nil {
		return Rendered{}, err
	}
	if out.Message, err = execText(c.message, td); err != nil {
		return Rendered{}, err
	}

	var buf bytes.Buffer
	if err := c.html.ExecuteTemplate(&buf, template+".html", td); err != nil {
		return Rendered{}, fmt.Errorf("failed to render %s template: %w", template, err)
	}
	out.HTML = buf.String()
	return out, nil
}

func execText(t *texttemplate.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
