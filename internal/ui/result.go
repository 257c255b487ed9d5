package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is a success, failure or warning box.
type Result struct {
	Type            ResultType
	Title           string
	Details         map[string]string
	Error           error
	Troubleshooting []string
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box. Troubleshooting tips are
// taken from the error when it is a DeviceError.
func NewFailureResult(title string, err error) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting(err),
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details map[string]string) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail adds a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	if r.Details == nil {
		r.Details = make(map[string]string)
	}
	r.Details[key] = value
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		title lipgloss.Style
		color lipgloss.Color
		label string
	)
	switch r.Type {
	case ResultFailure:
		title, color, label = ErrorTitleStyle, ErrorColor, FailureMarker+"  FAILED"
	case ResultWarning:
		title, color, label = WarningTitleStyle, WarningColor, WarningMarker+"  WARNING"
	default:
		title, color, label = SuccessTitleStyle, SuccessColor, SuccessMarker+"  SUCCESS"
	}

	lines := []string{"", title.Render(fmt.Sprintf(" %s  ─  %s", label, r.Title)), ""}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render(" Error: "+deviceconfig.GetShortErrorMessage(r.Error)), "")
	}
	if details := r.renderDetails(); details != "" {
		lines = append(lines, details, "")
	}
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render(" "+tip))
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, "")
	}

	return boxStyle(width, color).Render(strings.Join(lines, "\n"))
}

func (r *Result) renderDetails() string {
	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, ResultKeyStyle.Render(" "+k+":")+" "+ResultValueStyle.Render(r.Details[k]))
	}
	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

func troubleshooting(err error) []string {
	if err == nil {
		return nil
	}
	tips := strings.Split(deviceconfig.GetTroubleshootingHint(err), "\n")
	// A device that rebooted into provisioning or onto a new network
	// usually answers on a different address.
	if deviceconfig.IsNetworkError(err) {
		tips = append(tips, "  • Run 'smartap-cfg scan' to refresh the remembered address")
	}
	return tips
}
