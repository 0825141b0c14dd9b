package inference

// Role identifies a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Content block types.
const (
	BlockText  = "text"
	BlockImage = "image"
)

// Block is one content block of a message.
type Block struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource carries inline image data.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// TextBlock creates a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ImageBlock creates an image content block from base64 data.
func ImageBlock(mediaType, base64Data string) Block {
	return Block{
		Type: BlockImage,
		Source: &ImageSource{
			Type:      "base64",
			MediaType: mediaType,
			Data:      base64Data,
		},
	}
}

// Message is one conversation turn.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// NewUserMessage creates a user message from blocks.
func NewUserMessage(blocks ...Block) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// Request is a Messages API request body. Zero Model and MaxTokens take the
// client defaults.
type Request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

// Usage reports token counts.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a Messages API reply.
type Response struct {
	ID         string  `json:"id"`
	Model      string  `json:"model"`
	Role       Role    `json:"role"`
	Content    []Block `json:"content"`
	StopReason string  `json:"stop_reason"`
	Usage      Usage   `json:"usage"`

	// LatencyMs is measured by the client, not returned by the API.
	LatencyMs int64 `json:"-"`
}

// FirstText returns the text of the first text block. ok is false when the
// reply has no text block.
func (r *Response) FirstText() (text string, ok bool) {
	if r == nil {
		return "", false
	}
	for _, b := range r.Content {
		if b.Type == BlockText {
			return b.Text, true
		}
	}
	return "", false
}

// TextResponse builds a reply holding one text block.
func TextResponse(text string) *Response {
	return &Response{
		Role:       RoleAssistant,
		Content:    []Block{TextBlock(text)},
		StopReason: "end_turn",
	}
}
