package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/validate"
)

// fieldSpec describes one input. Name matches the json name used by the
// validate package so field errors land under the right input.
type fieldSpec struct {
	name   string
	label  string
	secret bool
	limit  int
}

type formField struct {
	fieldSpec
	input textinput.Model
}

// form is a vertical stack of text inputs with per-field validation messages.
type form struct {
	title   string
	fields  []formField
	focus   int
	errs    validate.FieldErrors
	message string
	busy    bool
}

func newForm(title string, specs ...fieldSpec) form {
	f := form{title: title}
	for _, spec := range specs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = spec.label
		in.CharLimit = spec.limit
		if in.CharLimit == 0 {
			in.CharLimit = 128
		}
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, formField{fieldSpec: spec, input: in})
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(idx int) {
	f.focus = clamp(idx, len(f.fields))
	for i := range f.fields {
		if i == f.focus {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
}

// update feeds a key to the form. submit is true when enter is pressed on
// the last field.
func (f *form) update(msg tea.KeyMsg, keys keyMap) (submit bool, cmd tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextField):
		f.setFocus((f.focus + 1) % len(f.fields))
		return false, nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus((f.focus - 1 + len(f.fields)) % len(f.fields))
		return false, nil
	case key.Matches(msg, keys.Confirm):
		if f.focus < len(f.fields)-1 {
			f.setFocus(f.focus + 1)
			return false, nil
		}
		return !f.busy, nil
	}
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return false, cmd
}

func (f form) value(name string) string {
	for _, field := range f.fields {
		if field.name == name {
			return strings.TrimSpace(field.input.Value())
		}
	}
	return ""
}

func (f *form) setValue(name, value string) {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].input.SetValue(value)
		}
	}
}

// fail records err. Field errors are shown inline; anything else becomes the
// form-level message.
func (f *form) fail(err error, fallback string) {
	f.busy = false
	f.errs = nil
	f.message = ""
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		f.errs = fe
		return
	}
	f.message = api.Message(err, fallback)
}

func (f *form) reset() {
	f.busy = false
	f.errs = nil
	f.message = ""
}

// check validates payload locally before anything is sent.
func (f *form) check(payload any) bool {
	f.reset()
	if err := validate.Struct(payload); err != nil {
		f.fail(err, "")
		return false
	}
	f.busy = true
	return true
}

func (f form) render(styles Styles, width int) string {
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	inputWidth := max(20, min(width-8, 48))
	for i, field := range f.fields {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Render(field.label))
		b.WriteString("\n")
		field.input.Width = inputWidth
		box := styles.Border
		if i == f.focus {
			box = styles.FocusBorder
		}
		b.WriteString(box.Width(inputWidth).Render(field.input.View()))
		b.WriteString("\n")
		if msg := f.errs.For(field.name); msg != "" {
			b.WriteString(styles.DangerText.Render(msg))
			b.WriteString("\n")
		}
	}
	if f.message != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.message))
		b.WriteString("\n")
	}
	if f.busy {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Please wait..."))
		b.WriteString("\n")
	}
	return b.String()
}
