package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/maintenance"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/interfaces/http/dto"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Renderer prints console output
type Renderer struct {
	out     io.Writer
	printer *message.Printer
	good    *color.Color
	bad     *color.Color
	muted   *color.Color
}

// NewRenderer writes to out. Colors are used only when colorize is set.
func NewRenderer(out io.Writer, lang language.Tag, colorize bool) *Renderer {
	r := &Renderer{
		out:     out,
		printer: message.NewPrinter(lang),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed, color.Bold),
		muted:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.good, r.bad, r.muted} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Money formats an amount with grouping and two decimals, e.g. "INR 12,500.00"
func (r *Renderer) Money(m valueobject.Money) string {
	cur := m.Currency()
	if cur == "" {
		cur = valueobject.DefaultCurrency
	}
	return string(cur) + " " + r.printer.Sprint(number.Decimal(m.Amount().InexactFloat64(), number.Scale(2)))
}

func (r *Renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
}

// Permissions prints every known capability and what the map grants for it
func (r *Renderer) Permissions(m *access.PermissionMap) error {
	w := r.table()
	fmt.Fprintln(w, "CAPABILITY\tGRANTED\tRESOURCES")
	for _, c := range access.AllCapabilities() {
		v, ok := m.Lookup(c)
		granted := r.bad.Sprint("no")
		if ok && v.Truthy() {
			granted = r.good.Sprint("yes")
		}
		resources := r.muted.Sprint("-")
		if ok && v.Scoped() {
			resources = strings.Join(v.ResourceIDs(), ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c, granted, resources)
	}
	return w.Flush()
}

// Decision prints a guard decision on one line
func (r *Renderer) Decision(req access.Requirement, d access.Decision) {
	subject := req.Capability.String()
	if req.ResourceID != "" {
		subject += " on " + req.ResourceID
	}
	switch d.Outcome {
	case access.Granted:
		fmt.Fprintf(r.out, "%s: %s\n", subject, r.good.Sprint("granted"))
	case access.DeniedRedirect:
		fmt.Fprintf(r.out, "%s: %s -> %s (%s)\n", subject, r.bad.Sprint("denied"), d.Target, d.Reason)
	default:
		fmt.Fprintf(r.out, "%s: %s (%s)\n", subject, r.bad.Sprint("unauthorized"), d.Reason)
	}
}

func costTypeLabel(ct string) string {
	switch maintenance.CostType(ct) {
	case maintenance.FixedTable:
		return "fixed table"
	case maintenance.UnitRate:
		return "unit rate"
	default:
		return ct
	}
}

// Schedules prints both schedule variants, the active one marked
func (r *Renderer) Schedules(list []dto.ScheduleResponse) error {
	if len(list) == 0 {
		fmt.Fprintln(r.out, "No maintenance schedule configured")
		return nil
	}
	for _, s := range list {
		state := r.muted.Sprint("inactive")
		if s.Status == dto.ScheduleActive {
			state = r.good.Sprint("active")
		}
		fmt.Fprintf(r.out, "%s (%s) [%s]\n", costTypeLabel(s.CostType), s.CostType, state)
		if s.UnitType != nil {
			fmt.Fprintf(r.out, "  %s per %s\n", s.UnitType.UnitValue, s.UnitType.UnitName)
			continue
		}
		w := r.table()
		for _, f := range s.FixedData {
			fmt.Fprintf(w, "  %s\t%s\n", f.ApartmentType, f.UnitValue)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Report prints the aggregated views followed by the totals
func (r *Renderer) Report(rep *Report) error {
	fmt.Fprintf(r.out, "Bills %s to %s (%s)\n",
		rep.Query.From.Format(time.DateOnly), rep.Query.To.Format(time.DateOnly), rep.Query.Category)
	if rep.Schedule == nil {
		fmt.Fprintln(r.out, r.muted.Sprint("No active schedule, base costs are zero"))
	}

	w := r.table()
	fmt.Fprintln(w, "BILL\tAPARTMENT\tPERIOD\tBASE\tADDITIONAL\tTOTAL\tPAID\tSTATUS")
	for _, v := range rep.Views {
		status := r.good.Sprint(string(v.Status))
		if v.Status != billing.StatusPaid {
			status = r.bad.Sprint(string(v.Status))
		}
		if v.UnmatchedType {
			status += r.muted.Sprint(" (no rate for type)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.BillName, v.ApartmentLabel, v.PeriodStart.Format(time.DateOnly),
			r.Money(v.BaseCost), r.Money(v.AdditionalCost), r.Money(v.TotalCost), r.Money(v.PaidCost),
			status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s := rep.Summary
	fmt.Fprintf(r.out, "\n%d groups from %d rows: %d paid, %d unpaid\n", s.Groups, rep.RowCount, s.Paid, s.Unpaid)
	fmt.Fprintf(r.out, "Total %s  Paid %s  Outstanding %s\n", r.Money(s.TotalCost), r.Money(s.PaidCost), r.Money(s.Outstanding))
	return nil
}
