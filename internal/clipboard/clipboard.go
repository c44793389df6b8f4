// Package clipboard reads raw input from the system clipboard or from
// pasted bytes.
package clipboard

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/pbaille/clipnote/internal/domain"
)

var (
	// ErrUnavailable means the system clipboard cannot be read here
	ErrUnavailable = errors.New("clipboard access is not available, paste the content manually")
	// ErrEmpty means the clipboard holds no text
	ErrEmpty = errors.New("clipboard is empty")
)

// Reader reads text from a clipboard
type Reader struct {
	readAll     func() (string, error)
	unsupported bool
}

// System returns a Reader for the system clipboard
func System() *Reader {
	return &Reader{readAll: clipboard.ReadAll, unsupported: clipboard.Unsupported}
}

// Read returns the clipboard text as raw input
func (r *Reader) Read() (domain.RawInput, error) {
	if r.unsupported {
		return domain.RawInput{}, ErrUnavailable
	}
	text, err := r.readAll()
	if err != nil {
		return domain.RawInput{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.RawInput{}, ErrEmpty
	}
	return domain.TextInput(text), nil
}

// FromBytes classifies pasted bytes as an image or as text by sniffing
// their content. declaredType, when set, wins for image/* types.
func FromBytes(data []byte, declaredType string) domain.RawInput {
	mimeType := declaredType
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	if strings.HasPrefix(mimeType, "image/") {
		return domain.ImageInput(data, mimeType)
	}
	return domain.TextInput(string(data))
}
