package prompts

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuoteExtractionPrompt(t *testing.T) {
	email := `
Hi,

Acme Foods can supply cocoa at $1.20/lb, FOB Ghana. We hold ISO 9001.
Jane Doe
`
	today := time.Date(2024, 3, 15, 22, 0, 0, 0, time.FixedZone("PDT", -7*3600))

	prompt := BuildQuoteExtractionPrompt(email, today)

	for _, field := range QuoteFields {
		assert.Contains(t, prompt, "- "+field.Name+": ", "prompt should list %s", field.Name)
	}
	assert.Contains(t, prompt, "Acme Foods can supply cocoa at $1.20/lb")
	assert.Contains(t, prompt, "Today's date is 2024-03-16", "date is rendered in UTC")
	assert.Contains(t, prompt, "set it to null")
	assert.NotContains(t, prompt, "price_per_pound")
	assert.True(t, strings.HasSuffix(prompt, "Return ONLY the JSON object, no additional text.\n"))
}

func TestQuoteFields_Order(t *testing.T) {
	names := make([]string, len(QuoteFields))
	for i, f := range QuoteFields {
		names[i] = f.Name
	}

	assert.Equal(t, []string{
		"supplier_company_name", "main_contact_name", "main_contact_email",
		"main_contact_phone", "hq_address", "payment_terms", "date_submitted",
		"price_per_unit", "country_of_origin", "certifications", "minimum_order_quantity",
	}, names)
}

func TestBuildQuoteExtractionSystemMessage(t *testing.T) {
	msg := BuildQuoteExtractionSystemMessage()
	assert.Contains(t, msg, "JSON object")
	assert.NotEmpty(t, msg)
}
