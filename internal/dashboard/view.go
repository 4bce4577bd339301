package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const minWidth, minHeight = 80, 24

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "starting dashboard...\n"
	}

	leftWidth := m.width * 2 / 3
	rightWidth := m.width - leftWidth - 4
	paneHeight := m.height - 6
	if paneHeight < 5 {
		paneHeight = 5
	}

	feed := paneBorder.Width(leftWidth).Height(paneHeight).Render(
		paneTitle.Render("Audit Feed") + "\n" + m.feedVP.View(),
	)

	online := paneBorder.Width(rightWidth).Height(paneHeight / 3).Render(
		paneTitle.Render(fmt.Sprintf("Online (%d)", len(m.online))) + "\n" + m.renderOnline(),
	)

	banned := paneBorder.Width(rightWidth).Height(paneHeight / 3).Render(
		paneTitle.Render(fmt.Sprintf("Banned (%d)", len(m.banned))) + "\n" + m.renderBanned(),
	)

	queue := paneBorder.Width(rightWidth).Height(paneHeight - 2*(paneHeight/3)).Render(
		paneTitle.Render(fmt.Sprintf("Vote Queue (threshold %d)", m.threshold)) + "\n" + m.renderQueue(),
	)

	right := lipgloss.JoinVertical(lipgloss.Left, online, banned, queue)
	body := lipgloss.JoinHorizontal(lipgloss.Top, feed, right)
	bar := statusBar.Width(m.width).Render("bouncer dashboard — q to quit")

	return lipgloss.JoinVertical(lipgloss.Left, body, bar)
}

func (m model) renderFeed() string {
	if len(m.feed) == 0 {
		return "(no activity yet)"
	}
	var b strings.Builder
	for _, line := range m.feed {
		b.WriteString(line.at.Format("15:04:05"))
		b.WriteByte(' ')
		b.WriteString(line.style.Render(line.text))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) renderOnline() string {
	if len(m.online) == 0 {
		return "(nobody online)"
	}
	var b strings.Builder
	for _, p := range m.online {
		fmt.Fprintf(&b, "%s\n", p.Name)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) renderBanned() string {
	if len(m.banned) == 0 {
		return "(no active bans)"
	}
	var b strings.Builder
	for _, rec := range m.banned {
		fmt.Fprintf(&b, "%s\n", banRow.Render(rec.Name+": "+rec.Reason))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) renderQueue() string {
	if len(m.pending) == 0 {
		return "(no pending requests)"
	}
	var b strings.Builder
	for _, req := range m.pending {
		fmt.Fprintf(&b, "%s: %s (%d votes)\n", req.Applicant, req.Command, len(req.VotedIPs))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
