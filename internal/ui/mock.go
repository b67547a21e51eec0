package ui

import "fmt"

// MockPrompter replays scripted answers. Exhausted confirmations decline and
// exhausted selections fail.
type MockPrompter struct {
	Selections []int
	Confirms   []bool

	// Asked records every label and question in order
	Asked []string
}

func (m *MockPrompter) Select(label string, items []string) (int, error) {
	m.Asked = append(m.Asked, label)
	if len(m.Selections) == 0 {
		return 0, fmt.Errorf("no scripted selection for %q", label)
	}
	idx := m.Selections[0]
	m.Selections = m.Selections[1:]
	if idx < 0 || idx >= len(items) {
		return 0, fmt.Errorf("invalid selection %d of %d", idx+1, len(items))
	}
	return idx, nil
}

func (m *MockPrompter) Confirm(question string) (bool, error) {
	m.Asked = append(m.Asked, question)
	if len(m.Confirms) == 0 {
		return false, nil
	}
	ok := m.Confirms[0]
	m.Confirms = m.Confirms[1:]
	return ok, nil
}
