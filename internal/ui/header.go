package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/session"
)

// renderHeader renders the navbar: app name, current screen, the signed-in
// user and the screens reachable from here.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)
	snap := m.session.Snapshot()

	left := []string{
		bg.Render("folio", styles.Logo),
		bg.Render(m.route.screen.String(), styles.Text.Bold(true)),
	}

	var nav []string
	add := func(k, label string, active bool) {
		style := styles.MutedText
		if active {
			style = styles.AccentText.Bold(true)
		}
		nav = append(nav, bg.Render(k, styles.AccentText)+bg.Render(":"+label, style))
	}
	add("b", "Books", m.route.screen == screenBooks)
	switch snap.Guard() {
	case session.GuardRestoring:
		left = append(left, bg.Render("restoring session…", styles.FaintText))
	case session.GuardAuthenticated:
		name := snap.User.Name
		if name == "" {
			name = snap.User.Email
		}
		left = append(left, bg.Render(truncate(name, 24), styles.InfoText))
		add("a", "Add Book", m.route.screen == screenAddBook)
		add("p", "Profile", m.route.screen == screenProfile)
		add("o", "Logout", false)
	default:
		left = append(left, bg.Render("Guest", styles.FaintText))
		add("l", "Login", m.route.screen == screenLogin)
		add("u", "Sign Up", m.route.screen == screenSignup)
	}

	leftStr := bg.Join(left, "  ")
	navStr := bg.Join(nav, "  ")
	gap := m.width - lipgloss.Width(leftStr) - lipgloss.Width(navStr) - 2
	var line string
	if gap < 2 || m.width < LayoutCompactWidth {
		line = leftStr + sep + navStr
	} else {
		line = leftStr + bg.Spaces(gap) + navStr
	}

	bar := bg.FillLine(bg.Spaces(1)+line, m.width)
	rule := styles.FaintText.Render(strings.Repeat("─", maxInt(m.width, 1)))
	return bar + "\n" + rule
}

// renderFooter shows the flash message if any, then contextual key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	status := ""
	if m.flash.text != "" {
		style := styles.InfoText
		switch m.flash.kind {
		case flashSuccess:
			style = styles.SuccessText
		case flashError:
			style = styles.DangerText
		}
		status = style.Render(m.flash.text)
	}

	type hint struct{ key, desc string }
	var hints []hint
	switch {
	case m.route.screen == screenProfile && m.profile.del.Active():
		hints = []hint{{"y", "Delete"}, {"n", "Cancel"}}
	case m.inputFocused():
		hints = []hint{{"tab", "Next"}, {"ctrl+s", "Submit"}, {"esc", "Back"}}
		if m.route.screen == screenBooks {
			hints = []hint{{"enter", "Done"}, {"esc", "Done"}}
		}
	default:
		switch m.route.screen {
		case screenBooks:
			hints = []hint{{"/", "Search"}, {"g", "Genre"}, {"s", "Sort"}, {"x", "Clear"}, {"[ ]", "Page"}, {"enter", "Open"}}
		case screenDetail:
			hints = []hint{{"j/k", "Scroll"}, {"r", "Review"}, {"esc", "Back"}}
		case screenProfile:
			hints = []hint{{"tab", "Tab"}, {"enter", "Open"}, {"e", "Edit"}, {"d", "Delete"}}
		}
		hints = append(hints, hint{"?", "Help"}, hint{"q", "Quit"})
	}

	parts := make([]string, 0, len(hints)+1)
	for _, h := range hints {
		parts = append(parts, bg.Render(h.key, styles.AccentText)+bg.Render(":"+h.desc, styles.MutedText))
	}
	if m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render("T", styles.AccentText)+bg.Render(":"+m.theme.Name, styles.FaintText))
	}
	bar := bg.FillLine(bg.Spaces(1)+bg.Join(parts, "  "), m.width)
	return status + "\n" + bar
}
