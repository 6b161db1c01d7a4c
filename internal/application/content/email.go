package content

import "github.com/go-notify-nosql/internal/domain"

// EmailContent is what the email channel needs to send a templated message.
type EmailContent struct {
	Subject       string
	TemplateAlias string
}

// emailDataKeys are the meta keys forwarded to the email template.
var emailDataKeys = []string{
	"username",
	"bid",
	"round",
	"reward",
	"referral",
	"currency",
	"code",
	"winner",
	"winningBid",
}

// EmailFor returns the email content for t. ok is false when t is not email-eligible.
func EmailFor(t domain.EventType, templateAlias string) (EmailContent, bool) {
	if !t.EmailEligible() {
		return EmailContent{}, false
	}
	return EmailContent{Subject: "New Notification", TemplateAlias: templateAlias}, true
}

// EmailData extracts the template substitution data from a target's meta.
// Missing keys are present with an empty value so templates render predictably.
func EmailData(meta map[string]string) map[string]string {
	data := make(map[string]string, len(emailDataKeys))
	for _, k := range emailDataKeys {
		data[k] = meta[k]
	}
	return data
}
