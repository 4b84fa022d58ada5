package repl

import (
	"strings"
	"sync"
)

// LineEditor is a client.Editor backed by terminal line input. Text typed
// through Type raises change events; SetValue does not.
type LineEditor struct {
	mu       sync.Mutex
	value    string
	language string
	theme    string
	onChange func(string)
}

func NewLineEditor() *LineEditor {
	return &LineEditor{}
}

func (e *LineEditor) SetValue(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = text
}

func (e *LineEditor) SetLanguage(language string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.language = language
}

func (e *LineEditor) SetTheme(theme string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.theme = theme
}

func (e *LineEditor) OnChange(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

func (e *LineEditor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *LineEditor) Mode() (language, theme string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language, e.theme
}

// Type replaces the text as a user edit would.
func (e *LineEditor) Type(text string) {
	e.mu.Lock()
	e.value = text
	fn := e.onChange
	e.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}

// Clear empties the text and raises a change event.
func (e *LineEditor) Clear() {
	e.Type("")
}

// AppendLine adds one line to the text and raises a change event with the
// full result.
func (e *LineEditor) AppendLine(line string) {
	e.mu.Lock()
	text := e.value
	e.mu.Unlock()

	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	e.Type(text + line)
}
