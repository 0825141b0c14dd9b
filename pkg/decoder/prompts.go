package decoder

// DefaultTranscribePrompt asks for a row-by-row dot/dash transcription.
const DefaultTranscribePrompt = "detect the morse code dots(black filled circles) and dashes(black filled rectangles)--> print them from left to right line by line."

// DefaultInterpretPrompt asks for the decoded text. The raw transcription
// is appended directly after it.
const DefaultInterpretPrompt = "USE INTERNATIONAL MORSE CODE-->convert the following picture morse code into english letters. " +
	"Read from Left to right and each line should be read as single english letter-ONLY use international morse code only. " +
	"Dont hallucinate. Each row is a english letter. " +
	"if no morse describe the short scene description (under 80 characters).\n" +
	"Do not explain. Do not include labels. Just return the clean final text.\n\n"

// Token limits per request.
const (
	DefaultTranscribeMaxTokens = 1024
	DefaultInterpretMaxTokens  = 50
)

// NoResponse is the transcription returned when the model reply has no
// text.
const NoResponse = "no response"
