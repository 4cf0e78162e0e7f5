package statement

import (
	"bytes"
	_ "embed"
	"html/template"
	"time"

	billingapp "github.com/society/backend/internal/application/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/statement.html
var defaultLayout string

// Composer fills the statement template
type Composer struct {
	tmpl    *template.Template
	printer *message.Printer
}

// ComposerOption configures a Composer
type ComposerOption func(*composerOptions)

type composerOptions struct {
	lang   language.Tag
	layout string
}

// WithLanguage sets the locale used for amounts
func WithLanguage(tag language.Tag) ComposerOption {
	return func(o *composerOptions) {
		o.lang = tag
	}
}

// WithLayout replaces the built-in template
func WithLayout(layout string) ComposerOption {
	return func(o *composerOptions) {
		o.layout = layout
	}
}

// NewComposer parses the statement template
func NewComposer(opts ...ComposerOption) (*Composer, error) {
	o := composerOptions{lang: language.English, layout: defaultLayout}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Composer{printer: message.NewPrinter(o.lang)}
	tmpl, err := template.New("statement").Funcs(template.FuncMap{
		"money":    c.money,
		"date":     formatDate,
		"costType": costType,
	}).Parse(o.layout)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "parse statement template", err)
	}
	c.tmpl = tmpl
	return c, nil
}

// Compose returns the HTML document of st
func (c *Composer) Compose(st billingapp.Statement) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, st); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute statement template", err)
	}
	return buf.String(), nil
}

// money formats an amount with grouping and two decimals, e.g. "INR 1,234.50"
func (c *Composer) money(m valueobject.Money) string {
	f := m.Amount().InexactFloat64()
	cur := m.Currency()
	if cur == "" {
		cur = valueobject.DefaultCurrency
	}
	return string(cur) + " " + c.printer.Sprint(number.Decimal(f, number.Scale(2)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

func costType(c maintenance.CostType) string {
	switch c {
	case maintenance.FixedTable:
		return "Fixed per apartment type"
	case maintenance.UnitRate:
		return "Per unit"
	default:
		return "Not configured"
	}
}
