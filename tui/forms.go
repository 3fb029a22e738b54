package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinema-booking-cli/payment"
)

type formField struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

// formModel is a column of text inputs with one focused at a time.
type formModel struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
}

func newForm(title string, fields ...formField) formModel {
	f := formModel{title: title}
	for _, field := range fields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.Prompt = ""
		if field.limit > 0 {
			in.CharLimit = field.limit
		}
		if field.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.labels = append(f.labels, field.label)
		f.inputs = append(f.inputs, in)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

func newLoginForm() formModel {
	return newForm("Log in",
		formField{label: "Username", placeholder: "demo", limit: 64},
		formField{label: "Password", secret: true, limit: 128},
	)
}

func newPaymentForm() formModel {
	return newForm("Payment",
		formField{label: "Name on card", placeholder: "Ana Torres", limit: 64},
		formField{label: "Card number", placeholder: "1234 5678 9012 3456", limit: 19},
		formField{label: "Expiry", placeholder: "MM/YY", limit: 5},
		formField{label: "CVV", placeholder: "123", secret: true, limit: 3},
	)
}

func (f *formModel) setFocus(i int) {
	if len(f.inputs) == 0 {
		return
	}
	i = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == i {
			f.inputs[j].Focus()
			continue
		}
		f.inputs[j].Blur()
	}
	f.focus = i
}

func (f *formModel) next() { f.setFocus(f.focus + 1) }
func (f *formModel) prev() { f.setFocus(f.focus - 1) }

func (f formModel) onLastField() bool {
	return f.focus == len(f.inputs)-1
}

func (f formModel) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return f.inputs[i].Value()
}

func (f formModel) paymentForm() payment.Form {
	return payment.Form{
		Name:       f.value(0),
		CardNumber: f.value(1),
		Expiry:     f.value(2),
		CVV:        f.value(3),
	}
}

func (f formModel) update(msg tea.Msg) (formModel, tea.Cmd) {
	if len(f.inputs) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f formModel) view() string {
	labelStyle := lipgloss.NewStyle().Width(14).Faint(true)
	focusStyle := lipgloss.NewStyle().Width(14).Bold(true).Foreground(lipgloss.Color("5"))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(f.title))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		style := labelStyle
		if i == f.focus {
			style = focusStyle
		}
		b.WriteString(style.Render(f.labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(f.err))
		b.WriteString("\n")
	}
	return b.String()
}
