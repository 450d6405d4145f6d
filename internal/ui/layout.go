package ui

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which list rows drop the
	// author column and the footer drops key hints.
	LayoutCompactWidth = 90

	// LayoutMaxContentWidth caps text blocks such as descriptions.
	LayoutMaxContentWidth = 100

	// FormInputWidth is the width of single-line form inputs.
	FormInputWidth = 48
)

// Fixed chrome heights around the content area.
const (
	headerHeight = 2
	footerHeight = 2
)

// contentHeight returns the rows available between header and footer.
func (m Model) contentHeight() int {
	return maxInt(m.height-headerHeight-footerHeight, 3)
}

// contentWidth returns the usable width for wrapped text.
func (m Model) contentWidth() int {
	w := m.width - 4
	if w > LayoutMaxContentWidth {
		w = LayoutMaxContentWidth
	}
	return maxInt(w, 20)
}
