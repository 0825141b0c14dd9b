package domain

// Sentinel texts produced by the interpretation step.
const (
	// MessageUnknown is emitted when the model returns no content.
	MessageUnknown = "UNKNOWN"

	// MessageError is emitted when the interpretation request fails.
	MessageError = "ERROR"
)

// DecodedMessage is the final short text forwarded to the downstream device.
type DecodedMessage struct {
	Text string

	// Sentinel is true when Text is MessageUnknown or MessageError rather
	// than model output.
	Sentinel bool
}

// NewDecodedMessage wraps model output.
func NewDecodedMessage(text string) DecodedMessage {
	return DecodedMessage{Text: text}
}

// NewSentinelMessage wraps one of the sentinel texts.
func NewSentinelMessage(text string) DecodedMessage {
	return DecodedMessage{Text: text, Sentinel: true}
}

// String returns the message text.
func (m DecodedMessage) String() string {
	return m.Text
}
