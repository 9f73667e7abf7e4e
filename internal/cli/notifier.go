package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// streamNotifier implements ports.Notifier by printing each warning as it
// arrives.
type streamNotifier struct {
	w  io.Writer
	mu sync.Mutex
}

func newStreamNotifier(w io.Writer) *streamNotifier {
	return &streamNotifier{w: w}
}

func (n *streamNotifier) Warn(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "%s %s\n", warningStyle.Render("Warning:"), message)
}

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", successStyle.Render("Success:"), message)
}

// PrintError writes an "Error:" line to w.
func PrintError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n", errorStyle.Render("Error:"), message)
}
