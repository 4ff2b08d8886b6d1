// Package browse renders the processed-posting state as an interactive
// terminal UI: a source picker, then a split list and detail view.
package browse

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jobscout/internal/dedup"
)

// Lines per entry in the list view (title + subtitle + blank separator).
const entryHeight = 3

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	entryTitleStyle = lipgloss.NewStyle().
			Bold(true)

	entrySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailValueStyle = lipgloss.NewStyle()

	identityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

type browseModel struct {
	sourceName string
	items      []dedup.Item
	linkCount  int
	hashCount  int
	now        time.Time

	listViewport   viewport.Model
	detailViewport viewport.Model
	activePane     int // 0=list, 1=detail
	cursor         int
	width          int
	height         int
	ready          bool

	wantQuit bool
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wantQuit = true
			return m, tea.Quit
		case "esc", "b":
			m.wantQuit = false
			return m, tea.Quit
		case "tab", "left", "right":
			m.activePane = 1 - m.activePane
			return m, nil
		case "up", "k":
			if m.activePane == 0 {
				m.moveCursor(-1)
				return m, nil
			}
		case "down", "j":
			if m.activePane == 0 {
				m.moveCursor(1)
				return m, nil
			}
		case "o":
			if it, ok := m.current(); ok && !dedup.IsTitleIdentity(it.ID) {
				openURL(string(it.ID))
			}
			return m, nil
		}

		// Remaining keys (pgup/pgdn, and arrows while the detail pane is
		// focused) scroll the active viewport.
		var cmd tea.Cmd
		if m.activePane == 0 {
			m.listViewport, cmd = m.listViewport.Update(msg)
		} else {
			m.detailViewport, cmd = m.detailViewport.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *browseModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.items)-1, 0))
	m.detailViewport.SetYOffset(0)
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *browseModel) ensureCursorVisible() {
	cursorTop := m.cursor * entryHeight
	cursorBottom := cursorTop + entryHeight - 1

	if cursorTop < m.listViewport.YOffset {
		m.listViewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(cursorBottom - m.listViewport.Height + 1)
	}
}

func (m browseModel) current() (dedup.Item, bool) {
	if len(m.items) == 0 {
		return dedup.Item{}, false
	}
	return m.items[m.cursor], true
}

func (m *browseModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.detailViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
		m.detailViewport.Width = paneWidth
		m.detailViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderEntries(m.items, m.cursor))
	m.detailViewport.SetContent(m.renderDetail())
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	paneWidth := m.listViewport.Width

	listTitle := m.sourceName
	if listTitle == "" || listTitle == AllSources {
		listTitle = "Processed"
	}
	leftHeader := fmt.Sprintf(" %s (%d)", listTitle, len(m.items))
	rightHeader := " Entry"

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.listViewport.View())
	rightPane := rightBorder.Render(m.detailViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := fmt.Sprintf(" %d from links | %d from title hashes    ←/→/Tab switch  ↑/↓ cursor  o open  Esc back  q quit",
		m.linkCount, m.hashCount)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m browseModel) renderDetail() string {
	it, ok := m.current()
	if !ok {
		return "  (nothing to show)"
	}

	e := it.Entry
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	title := e.Title
	if title == "" {
		title = "(untitled)"
	}
	addField("Title", title)
	addField("Source", e.Source)
	if !e.FirstSeen.IsZero() {
		seen := e.FirstSeen.Local().Format("2006-01-02 15:04")
		addField("First seen", fmt.Sprintf("%s (%s)", seen, age(e.FirstSeen, m.now)))
	}

	b.WriteByte('\n')

	wrapWidth := max(m.detailViewport.Width-4, 20)
	if dedup.IsTitleIdentity(it.ID) {
		addField("Identity", "title hash")
		b.WriteByte('\n')
		b.WriteString(identityStyle.Render(hardWrap(string(it.ID), wrapWidth)) + "\n")
	} else {
		addField("Identity", "canonical link")
		b.WriteByte('\n')
		b.WriteString(identityStyle.Render(hardWrap(string(it.ID), wrapWidth)) + "\n")
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  press o to open in browser") + "\n")
	}

	return b.String()
}

func renderEntries(items []dedup.Item, cursor int) string {
	if len(items) == 0 {
		return "  (no entries)"
	}

	var b strings.Builder
	for i, it := range items {
		titleSt := entryTitleStyle
		subtitleSt := entrySubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		title := it.Entry.Title
		if title == "" {
			title = "(untitled)"
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		seen := "n/a"
		if !it.Entry.FirstSeen.IsZero() {
			seen = it.Entry.FirstSeen.Local().Format("2006-01-02")
		}
		source := it.Entry.Source
		if source == "" {
			source = "?"
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s", source, seen)))
		b.WriteByte('\n')

		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// hardWrap breaks text into width-sized chunks. Identities are URLs or
// hashes with no spaces, so word wrapping has nothing to split on.
func hardWrap(s string, width int) string {
	if width < 1 || len(s) <= width {
		return s
	}
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunStateTUI launches the interactive split-pane state browser over the
// given entries. Returns wantQuit=true if the user pressed q/ctrl+c, false
// if they pressed esc to go back to the picker.
func RunStateTUI(items []dedup.Item, sourceName string) (bool, error) {
	m := browseModel{
		items:      items,
		sourceName: sourceName,
		now:        time.Now(),
	}
	for _, it := range items {
		if dedup.IsTitleIdentity(it.ID) {
			m.hashCount++
		} else {
			m.linkCount++
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(browseModel)
	return final.wantQuit, nil
}
