package output

// ANSI escape sequences.
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// Style decorates text output. The zero value prints plain text.
type Style struct {
	Color bool
}

func (s Style) wrap(code, text string) string {
	if !s.Color || text == "" {
		return text
	}
	return code + text + ansiReset
}

// Bold emphasizes text.
func (s Style) Bold(text string) string { return s.wrap(ansiBold, text) }

// Good marks a healthy value.
func (s Style) Good(text string) string { return s.wrap(ansiGreen, text) }

// Warn marks a value that needs attention.
func (s Style) Warn(text string) string { return s.wrap(ansiYellow, text) }

// Bad marks a failure.
func (s Style) Bad(text string) string { return s.wrap(ansiRed, text) }

// Dim de-emphasizes text.
func (s Style) Dim(text string) string { return s.wrap(ansiDim, text) }
