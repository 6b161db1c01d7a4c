package domain

// PushMessage is one push notification addressed to a set of device tokens.
type PushMessage struct {
	Tokens   []string
	Title    string
	Body     string
	ImageURL string
	Data     map[string]string
}

// EmailMessage is a templated transactional email.
type EmailMessage struct {
	To            string
	Subject       string
	TemplateAlias string
	Data          map[string]string
	Tag           string
}
