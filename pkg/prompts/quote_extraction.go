// Package prompts builds the LLM prompts used by the extraction pipeline.
package prompts

import (
	"fmt"
	"strings"
	"time"
)

// QuoteField describes one key of the structured quote the model must return.
// Type is the JSON Schema type of a present value; every field is nullable.
type QuoteField struct {
	Name        string
	Type        string
	Description string
}

// QuoteFields lists every key of the extraction payload in output order.
var QuoteFields = []QuoteField{
	{"supplier_company_name", "string", "The name of the supplier's company."},
	{"main_contact_name", "string", "The name of the main contact person at the supplier's company."},
	{"main_contact_email", "string", "The email address of the main contact person."},
	{"main_contact_phone", "string", "The phone number of the main contact person."},
	{"hq_address", "string", "The headquarters address of the supplier's company."},
	{"payment_terms", "string", "The payment terms mentioned in the email."},
	{"date_submitted", "string", "The date the email was sent, formatted YYYY-MM-DD."},
	{"price_per_unit", "number", "The quoted price per unit of the product as a number (e.g., 1.20), without currency symbols."},
	{"country_of_origin", "string", "The country where the product originates."},
	{"certifications", "array", "A list of all certifications mentioned, as strings."},
	{"minimum_order_quantity", "integer", "The minimum order quantity as an integer."},
}

// BuildQuoteExtractionSystemMessage returns the system message for quote extraction.
func BuildQuoteExtractionSystemMessage() string {
	return `You are a procurement assistant that extracts structured data from supplier emails. You respond with a single JSON object and never invent values that are not stated in the email.`
}

// BuildQuoteExtractionPrompt creates the user prompt for extracting a quote
// from emailText. today anchors relative dates ("yesterday", "last Friday").
func BuildQuoteExtractionPrompt(emailText string, today time.Time) string {
	var prompt strings.Builder

	prompt.WriteString("# Supplier Quote Extraction\n\n")
	prompt.WriteString("Process the following email and extract a JSON object with exactly these fields:\n\n")
	for _, field := range QuoteFields {
		prompt.WriteString(fmt.Sprintf("- %s: %s\n", field.Name, field.Description))
	}

	prompt.WriteString("\n## Rules\n\n")
	prompt.WriteString("- If a field cannot be determined from the email, set it to null.\n")
	prompt.WriteString("- If the email gives no date, set date_submitted to null.\n")
	prompt.WriteString(fmt.Sprintf("- Today's date is %s; use it to resolve relative dates.\n", today.UTC().Format("2006-01-02")))
	prompt.WriteString("- Do not add any other keys.\n")

	prompt.WriteString("\n## Email\n\n")
	prompt.WriteString("```\n")
	prompt.WriteString(strings.TrimSpace(emailText))
	prompt.WriteString("\n```\n\n")

	prompt.WriteString("Return ONLY the JSON object, no additional text.\n")

	return prompt.String()
}
