package dto

// Attachment references media hosted by the message transport.
type Attachment struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// InboundMessage is one event received from the message transport.
type InboundMessage struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments"`
}

func (m InboundMessage) HasAttachments() bool {
	return len(m.Attachments) > 0
}
