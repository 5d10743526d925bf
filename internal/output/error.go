package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	pocketerr "github.com/mrz1836/pocket/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	Details      map[string]string `json:"details,omitempty"`
	Suggestion   string            `json:"suggestion,omitempty"`
	ProviderCode int               `json:"provider_code,omitempty"`
	ExitCode     int               `json:"exit_code"`
}

// coder is implemented by wallet and node errors carrying a JSON-RPC code.
type coder interface {
	ErrorCode() int
}

// Describe converts err into its structured form.
func Describe(err error) ErrorDetail {
	d := ErrorDetail{
		Code:     pocketerr.Code(err),
		Message:  err.Error(),
		ExitCode: pocketerr.ExitCode(err),
	}

	var pe *pocketerr.PocketError
	if errors.As(err, &pe) {
		d.Message = pe.Message
		if pe.Cause != nil && !errors.Is(pe.Cause, pe) {
			d.Message = pe.Message + ": " + pe.Cause.Error()
		}
		d.Details = pe.Details
		d.Suggestion = pe.Suggestion
	}

	var c coder
	if errors.As(err, &c) {
		d.ProviderCode = c.ErrorCode()
	}
	return d
}

// FormatError writes err to w.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	d := Describe(err)

	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", d.Message)
	if d.ProviderCode != 0 {
		fmt.Fprintf(&sb, "Wallet code: %d\n", d.ProviderCode)
	}
	if len(d.Details) > 0 {
		keys := make([]string, 0, len(d.Details))
		for k := range d.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}

	_, werr := io.WriteString(w, sb.String())
	return werr
}

// FormatSuccess writes a one-line confirmation.
func FormatSuccess(w io.Writer, message string, format Format) error {
	if format == FormatJSON {
		return writeJSON(w, map[string]string{"status": "success", "message": message})
	}
	_, err := fmt.Fprintln(w, message)
	return err
}
