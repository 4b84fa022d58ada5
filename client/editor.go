package client

const (
	DefaultLanguage = "javascript"
	DefaultTheme    = "vs-dark"
)

// Editor is a text editing widget bound to the code buffer.
//
// SetValue replaces the whole text and must not raise a change event. The
// OnChange callback receives the full text after every user edit. The
// controller calls the Set methods from its event loop only.
type Editor interface {
	SetValue(text string)
	SetLanguage(language string)
	SetTheme(theme string)
	OnChange(fn func(text string))
}
