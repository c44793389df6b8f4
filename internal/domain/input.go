package domain

// InputKind distinguishes the two shapes of raw input
type InputKind string

const (
	InputText  InputKind = "text"
	InputImage InputKind = "image"
)

// RawInput is content as produced by a paste or clipboard read. It is
// either text or an image blob, never both.
type RawInput struct {
	Kind     InputKind
	Text     string
	Blob     []byte
	MimeType string
}

// TextInput wraps free text as raw input
func TextInput(text string) RawInput {
	return RawInput{Kind: InputText, Text: text}
}

// ImageInput wraps an image blob as raw input
func ImageInput(blob []byte, mimeType string) RawInput {
	return RawInput{Kind: InputImage, Blob: blob, MimeType: mimeType}
}
