package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ExitSuccess = 0
	ExitFailure = 1 // the operation failed
	ExitUsage   = 2 // bad flags or arguments
)

// ExitError marks an error that was already written to the output.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	printer   *message.Printer
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		printer:   message.NewPrinter(language.English),
	}
}

// Success writes data as JSON, or calls text for the human-readable form.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

// Fail reports err and returns it as an ExitError.
func (f *OutputFormatter) Fail(err error) error {
	msg := "operation failed: " + err.Error()
	if f.Format == "json" {
		if encErr := f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: domain.ErrorCode(err), Message: msg},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintln(f.ErrWriter, msg)
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

func (f *OutputFormatter) Price(amount float64) string {
	return f.printer.Sprintf("%.2f", amount)
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
