package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Raw Subject/Text/HTML may be supplied directly, or Template with Data to
// render on the worker side.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // e.g. "confirm_signup", "login_link"
	Data     map[string]any `json:"data,omitempty"`
}
