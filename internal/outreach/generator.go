// Package outreach builds the content staff send to providers: RFQ emails
// for email-mode destinations and portal instructions for web-form ones.
package outreach

import (
	"fmt"
	"strings"

	"github.com/partforge/quotewire/internal/config"
	"github.com/partforge/quotewire/internal/destination"
	"github.com/partforge/quotewire/internal/models"
)

// EmailContent is a generated outreach email.
type EmailContent struct {
	Subject string
	Body    string
}

// WebFormInstructions tells staff how to submit an RFQ through a provider's
// web form, including the public offer-submission link for the reply.
type WebFormInstructions struct {
	URL          string
	Instructions string
}

// Generator produces outreach content for a destination. Implementations may
// call external services; the template generator below is deterministic.
type Generator interface {
	EmailContent(rfq models.RFQ, d models.Destination) (EmailContent, error)
	WebFormInstructions(rfq models.RFQ, d models.Destination) (WebFormInstructions, error)
}

const emailBodyTemplate = `Hello {{.Provider}},

{{.From}} is requesting a quotation for {{.Reference}}.

{{.Notes}}

Please submit your price and lead time through your offer link:
{{.OfferURL}}

Reply to {{.ReplyTo}} with any questions.

Thanks,
{{.From}}`

const webFormTemplate = `Open the provider's quoting form and enter the details of {{.Reference}}.
Paste the offer link below into the "reference" or "notes" field so the
response can be matched back to this request:

{{.OfferURL}}`

// TemplateGenerator renders outreach content from static templates and
// configuration. Safe for concurrent use.
type TemplateGenerator struct {
	cfg config.OutreachConfig
}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator(cfg config.OutreachConfig) *TemplateGenerator {
	return &TemplateGenerator{cfg: cfg}
}

// OfferURL builds the public offer-submission link for a destination.
func (g *TemplateGenerator) OfferURL(d models.Destination) (string, error) {
	if d.OfferToken == "" {
		return "", fmt.Errorf("outreach: destination %s has no offer token", d.ID)
	}
	base := strings.TrimSuffix(g.cfg.PortalBaseURL, "/")
	if base == "" {
		return "", fmt.Errorf("outreach: portal base URL is not configured")
	}
	return base + "/offers/" + d.OfferToken, nil
}

// EmailContent renders the outreach email for an email-mode destination.
func (g *TemplateGenerator) EmailContent(rfq models.RFQ, d models.Destination) (EmailContent, error) {
	if destination.DispatchMode(d.DispatchMode) != destination.ModeEmail {
		return EmailContent{}, fmt.Errorf("outreach: destination %s is %s, not email", d.ID, d.DispatchMode)
	}
	url, err := g.OfferURL(d)
	if err != nil {
		return EmailContent{}, err
	}

	provider := d.ProviderName
	if provider == "" {
		provider = d.ProviderID
	}
	notes := rfq.Notes
	if notes == "" {
		notes = "Drawings and specifications are attached."
	}

	r := strings.NewReplacer(
		"{{.Provider}}", provider,
		"{{.From}}", g.cfg.FromName,
		"{{.Reference}}", rfq.Reference,
		"{{.Notes}}", notes,
		"{{.OfferURL}}", url,
		"{{.ReplyTo}}", g.cfg.ReplyTo,
	)
	return EmailContent{
		Subject: fmt.Sprintf("Request for quotation: %s", rfq.Reference),
		Body:    r.Replace(emailBodyTemplate),
	}, nil
}

// WebFormInstructions renders submission instructions for a web-form destination.
func (g *TemplateGenerator) WebFormInstructions(rfq models.RFQ, d models.Destination) (WebFormInstructions, error) {
	if destination.DispatchMode(d.DispatchMode) != destination.ModeWebForm {
		return WebFormInstructions{}, fmt.Errorf("outreach: destination %s is %s, not web_form", d.ID, d.DispatchMode)
	}
	url, err := g.OfferURL(d)
	if err != nil {
		return WebFormInstructions{}, err
	}

	r := strings.NewReplacer(
		"{{.Reference}}", rfq.Reference,
		"{{.OfferURL}}", url,
	)
	return WebFormInstructions{
		URL:          url,
		Instructions: r.Replace(webFormTemplate),
	}, nil
}
