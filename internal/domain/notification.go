package domain

// MailMessage is a notification handed off to the mail outbox. Delivery
// is performed by an external consumer of the outbox collection.
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
