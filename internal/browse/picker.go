package browse

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"jobscout/internal/dedup"
)

// AllSources is the aggregate picker row covering every entry.
const AllSources = "All sources"

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// SourceOption is one row in the source picker.
type SourceOption struct {
	Name  string
	Count int
}

// SourceOptions builds picker rows from state entries: one row per source,
// busiest first, preceded by an aggregate row covering everything.
func SourceOptions(items []dedup.Item) []SourceOption {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Entry.Source]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	options := []SourceOption{{Name: AllSources, Count: len(items)}}
	for _, name := range names {
		options = append(options, SourceOption{Name: name, Count: counts[name]})
	}
	return options
}

type pickerModel struct {
	options []SourceOption
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Processed Postings — Select a source")
	s += "\n"

	for i, o := range m.options {
		name := o.Name
		if name == "" {
			name = "(no source)"
		}
		label := fmt.Sprintf("%s (%d)", name, o.Count)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunSourcePicker shows an interactive source selector.
// Returns the index of the chosen option, or a negative value if the user quit.
func RunSourcePicker(options []SourceOption) (int, error) {
	m := pickerModel{
		options: options,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
