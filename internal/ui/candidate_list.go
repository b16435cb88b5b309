package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
)

// candidateItem wraps a list entry for the bubbles list
type candidateItem struct {
	entry mapview.Entry
}

// FilterValue implements list.Item
func (c candidateItem) FilterValue() string {
	return c.entry.PlateNumber + " " + c.entry.ID
}

// Title implements list.DefaultItem
func (c candidateItem) Title() string {
	return "🚗 " + c.entry.Header
}

// Description implements list.DefaultItem
func (c candidateItem) Description() string {
	return c.entry.Nearest
}

// createCandidateList keeps the pipeline order; the list never re-sorts
func createCandidateList(entries []mapview.Entry, title string, width, height int) list.Model {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = candidateItem{entry: e}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}
