package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorGreen = lipgloss.Color("#22c55e")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
	colorWhite = lipgloss.Color("#f9fafb")
	colorAmber = lipgloss.Color("#f59e0b")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAmber)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// launchSummary is what a successful run reports.
type launchSummary struct {
	ClusterName    string
	NodeName       string
	HeadAddress    string
	User           string
	PrivateKeyPath string
	DescriptorPath string
}

// Command returns the follow-on command template for reaching the cluster
// as the restricted user.
func (s *launchSummary) Command() string {
	return fmt.Sprintf("ssh -i %s %s@%s -- [CMD]", s.PrivateKeyPath, s.User, s.HeadAddress)
}

// renderSummary formats the success banner. Styling is applied only when
// styled is true so piped output stays plain.
func renderSummary(s *launchSummary, styled bool) string {
	if !styled {
		var b strings.Builder
		fmt.Fprintf(&b, "Local cluster %s is now ready for use!\n", s.ClusterName)
		fmt.Fprintf(&b, "  Node:        %s (%s)\n", s.NodeName, s.HeadAddress)
		fmt.Fprintf(&b, "  User:        %s\n", s.User)
		fmt.Fprintf(&b, "  Run:         %s\n", s.Command())
		fmt.Fprintf(&b, "  Descriptor:  %s\n", s.DescriptorPath)
		return b.String()
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("Local cluster %s is now ready for use!", s.ClusterName)),
		"",
		row("Node", fmt.Sprintf("%s (%s)", s.NodeName, s.HeadAddress)),
		row("User", s.User),
		labelStyle.Render("Run") + commandStyle.Render(s.Command()),
		row("Descriptor", s.DescriptorPath),
	}
	return boxStyle.Render(strings.Join(rows, "\n")) + "\n"
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

// renderCleanupHint tells the user which node was left behind by a failed run.
func renderCleanupHint(nodeName, platformName string) string {
	var b strings.Builder
	b.WriteString(warnStyle.Render("Nothing was cleaned up."))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Node %s may still be running on %s. Remove it manually, or rerun with --strict to clean up automatically.\n", nodeName, platformName)
	return b.String()
}
