package components

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/allbin/serialmon"
	"github.com/allbin/serialmon/internal/tui/keys"
	"github.com/allbin/serialmon/internal/tui/styles"
)

const (
	columnKeyValue  = "value"
	columnKeyName   = "name"
	columnKeyIDs    = "ids"
	columnKeyDetail = "detail"
)

// Picker is a single choice list over a bubble-table
type Picker struct {
	title  string
	values []string
	table  table.Model
	keys   keys.PickerKeys

	done   bool
	chosen string
}

func newPicker(title string, columns []table.Column, rows []table.Row, values []string) *Picker {
	t := table.New(columns).
		WithRows(rows).
		HeaderStyle(styles.PickerHeaderStyle).
		HighlightStyle(styles.PickerHighlightStyle).
		WithPageSize(12).
		WithFooterVisibility(len(rows) > 12).
		BorderRounded().
		Focused(true)

	return &Picker{
		title:  title,
		values: values,
		table:  t,
		keys:   keys.NewPickerKeys(),
	}
}

// NewPortPicker lists ports with their USB details
func NewPortPicker(ports []serialmon.PortDescriptor) *Picker {
	columns := []table.Column{
		table.NewColumn(columnKeyName, "Port", 24),
		table.NewColumn(columnKeyIDs, "VID:PID", 11),
		table.NewColumn(columnKeyDetail, "Device", 32),
	}

	rows := make([]table.Row, 0, len(ports))
	values := make([]string, 0, len(ports))
	for _, p := range ports {
		ids := ""
		if p.VendorID != "" || p.ProductID != "" {
			ids = p.VendorID + ":" + p.ProductID
		}
		detail := p.Description()
		if p.SerialNumber != "" {
			detail = fmt.Sprintf("%s (%s)", detail, p.SerialNumber)
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyValue:  p.Name,
			columnKeyName:   p.Name,
			columnKeyIDs:    ids,
			columnKeyDetail: detail,
		}))
		values = append(values, p.Name)
	}

	return newPicker("Select Serial Port", columns, rows, values)
}

// NewBaudPicker lists rates with the current one marked and highlighted
func NewBaudPicker(rates []int, current int) *Picker {
	columns := []table.Column{
		table.NewColumn(columnKeyName, "Baud rate", 12),
		table.NewColumn(columnKeyDetail, "", 10),
	}

	rows := make([]table.Row, 0, len(rates))
	values := make([]string, 0, len(rates))
	highlighted := 0
	for i, r := range rates {
		mark := ""
		if r == current {
			mark = "current"
			highlighted = i
		}
		v := strconv.Itoa(r)
		rows = append(rows, table.NewRow(table.RowData{
			columnKeyValue:  v,
			columnKeyName:   v,
			columnKeyDetail: mark,
		}))
		values = append(values, v)
	}

	p := newPicker("Select Baud Rate", columns, rows, values)
	p.table = p.table.WithHighlightedRow(highlighted)
	return p
}

// Done reports whether the user chose or cancelled
func (p *Picker) Done() bool {
	return p.done
}

// Chosen returns the chosen value; ok is false when cancelled
func (p *Picker) Chosen() (string, bool) {
	return p.chosen, p.done && p.chosen != ""
}

func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	if p.done {
		return p, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.keys.Choose):
			if len(p.values) > 0 {
				if v, ok := p.table.HighlightedRow().Data[columnKeyValue].(string); ok {
					p.chosen = v
				}
			}
			p.done = true
			return p, nil
		case key.Matches(msg, p.keys.Cancel):
			p.done = true
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return p, cmd
}

func (p *Picker) View() string {
	title := styles.TitleStyle.Render(p.title)
	hint := styles.MutedStyle.Render("↑/↓ move • enter choose • esc cancel")
	return styles.PickerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, p.table.View(), hint))
}
