package pipeline

import (
	"strings"

	"github.com/supportai/triage-pipeline/internal/ticket"
)

// responseTemplate is one pre-written response structure used by the draft
// fallback. {customer_name} is the only substitution point.
type responseTemplate struct {
	greeting string
	body     string
	tone     string
}

var responseTemplates = map[string]responseTemplate{
	"billing_invoice": {
		greeting: "Dear {customer_name},",
		body: `Thank you for bringing this billing issue to our attention. I understand how important it is to have accurate billing records.

Our Finance team specializes in these matters and will investigate promptly.

What to expect:
- Review of your account within one business day
- Email notification once the review is complete

If you have any additional details or documentation, please reply to this ticket.`,
		tone: "professional_helpful",
	},
	"billing_refund": {
		greeting: "Dear {customer_name},",
		body: `I appreciate you letting us know about this billing discrepancy. Duplicate charges can be frustrating, and I want to assure you we'll look into this right away.

Our Finance team will:
1. Review your transaction history
2. Verify the charge details
3. Notify you of the outcome

You'll receive an email confirmation once the review is complete. Please let us know if there's anything else we can help with in the meantime.`,
		tone: "empathetic_professional",
	},
	"technical_login": {
		greeting: "Dear {customer_name},",
		body: `I'm sorry to hear you're having trouble accessing your account. Let's get you back in quickly.

To reset your password:
1. Visit our login page
2. Click "Forgot Password"
3. Enter your email address
4. Follow the instructions in the reset email

If you're still unable to access your account after resetting your password, please reply with the exact error message, the device and browser you're using, and any recent changes to your account. Our Technical team will assist you further if needed.`,
		tone: "helpful_supportive",
	},
	"account_access": {
		greeting: "Dear {customer_name},",
		body: `Thank you for reaching out about your account. I understand how important it is to have reliable access to your services.

To help resolve this quickly, could you please provide:
- Your account email address
- The specific error or issue you're experiencing
- When this started happening

Once we have this information, our Account team can investigate and get you back up and running. In the meantime, you can also try clearing your browser cache and cookies or using a different browser or device.`,
		tone: "professional_helpful",
	},
	"feature_request": {
		greeting: "Dear {customer_name},",
		body: `Thank you for your suggestion! We appreciate you taking the time to share your ideas for improving our service.

Your feedback has been noted and will be reviewed by our Product team. We regularly review customer suggestions to help prioritize our development roadmap. While we can't commit to specific timelines, your input helps us understand what features are most important to our users.

If you'd like to share more details about your use case, please feel free to reply to this ticket.`,
		tone: "friendly_appreciative",
	},
}

// categoryTemplateKeys maps triage categories onto template keys. Unmapped
// categories fall back to account_access.
var categoryTemplateKeys = map[string]string{
	"Billing - Invoice Issue": "billing_invoice",
	"Billing - Refund":        "billing_refund",
	"Technical - Login":       "technical_login",
	"Account - Access":        "account_access",
	"Feature Request":         "feature_request",
}

func templateForCategory(category string) responseTemplate {
	key, ok := categoryTemplateKeys[strings.TrimSpace(category)]
	if !ok {
		key = "account_access"
	}
	return responseTemplates[key]
}

// TemplateDraft renders the deterministic fallback draft: template selected by
// category, customer name substituted, tone adjusted for sentiment, citations
// appended as bracketed references.
func TemplateDraft(category string, sentiment ticket.Sentiment, customerName string, citations []ticket.Citation) ticket.Draft {
	tpl := templateForCategory(category)

	body := tpl.body
	tone := tpl.tone
	if sentiment == ticket.SentimentFrustrated {
		body = "I understand this can be frustrating. I'm sorry for the inconvenience. " + body
		body += "\n\nRest assured we're here to help resolve this for you."
	}

	if len(citations) > 0 {
		refs := make([]string, 0, len(citations))
		for i, c := range citations {
			if i == 3 {
				break
			}
			refs = append(refs, "["+c.DocID+"]")
		}
		body += "\n\nFor more information, please see: " + strings.Join(refs, " ")
	}

	return ticket.Draft{
		Greeting: strings.ReplaceAll(tpl.greeting, "{customer_name}", customerName),
		Body:     body,
		Closing:  ticket.DefaultClosing,
		Tone:     tone,
	}
}

// CustomerName derives a display name from the local part of an email
// address. Dots separate name parts; underscores and hyphens read as spaces.
// Anything unusable yields "Customer".
func CustomerName(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 {
		return "Customer"
	}
	local := email[:at]

	if strings.Contains(local, ".") {
		var parts []string
		for _, part := range strings.Split(local, ".") {
			if len(part) > 1 {
				parts = append(parts, titleCase(part))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}

	name := strings.NewReplacer("_", " ", "-", " ").Replace(local)
	name = strings.TrimSpace(titleCase(name))
	if len(name) <= 1 {
		return "Customer"
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
