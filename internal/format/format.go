// Package format turns raw analytics numbers and timestamps into display strings.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultLocale         = "ru"
	DefaultCurrencySymbol = "₸"
	DateTimeLayout        = "02.01.2006 15:04"
	DateLayout            = "02.01.2006"
	Placeholder           = "—"
)

// Formatter renders values using a fixed locale, currency symbol and time zone.
type Formatter struct {
	printer  *message.Printer
	tag      language.Tag
	symbol   string
	location *time.Location
}

type Option func(*Formatter)

func WithCurrencySymbol(symbol string) Option {
	return func(f *Formatter) {
		f.symbol = symbol
	}
}

func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.location = loc
		}
	}
}

// New builds a Formatter for a BCP 47 locale such as "ru" or "en-US".
// Unknown locales fall back to Russian.
func New(locale string, opts ...Option) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.Russian
	}
	f := &Formatter{
		printer:  message.NewPrinter(tag),
		tag:      tag,
		symbol:   DefaultCurrencySymbol,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var defaultFormatter = New(DefaultLocale)

func Default() *Formatter {
	return defaultFormatter
}

func (f *Formatter) Locale() string {
	return f.tag.String()
}

// Currency rounds to whole units and appends the currency symbol.
func (f *Formatter) Currency(v float64) string {
	if f.symbol == "" {
		return f.Number(v)
	}
	return f.Number(v) + " " + f.symbol
}

// Number rounds half away from zero and applies locale digit grouping.
func (f *Formatter) Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return f.printer.Sprintf("%d", int64(math.Round(v)))
}

// Decimal formats v with the given number of fraction digits.
func (f *Formatter) Decimal(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return f.printer.Sprintf("%."+strconv.Itoa(digits)+"f", v)
}

// Percentage expects v on the 0-100 scale.
func (f *Formatter) Percentage(v float64) string {
	return f.Decimal(v, 1) + "%"
}

// Score expects v on the 0-1 scale.
func (f *Formatter) Score(v float64) string {
	return f.Percentage(v * 100)
}

func (f *Formatter) DateTime(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(f.location).Format(DateTimeLayout)
}

func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.In(f.location).Format(DateLayout)
}

// DateString formats a backend date string, returning it unchanged when it
// cannot be parsed. A bare calendar date names a day, not an instant, so it
// is never shifted into the formatter's location.
func (f *Formatter) DateString(s string) string {
	if day, err := time.Parse(dateOnlyLayout, strings.TrimSpace(s)); err == nil {
		return day.Format(DateLayout)
	}
	t, ok := ParseTime(s)
	if !ok {
		if strings.TrimSpace(s) == "" {
			return Placeholder
		}
		return s
	}
	local := t.In(f.location)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 {
		return local.Format(DateLayout)
	}
	return local.Format(DateTimeLayout)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999",
	dateOnlyLayout,
}

const dateOnlyLayout = time.DateOnly

// ParseTime accepts the timestamp layouts the analytics backend emits.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func Currency(v float64) string   { return defaultFormatter.Currency(v) }
func Number(v float64) string     { return defaultFormatter.Number(v) }
func Percentage(v float64) string { return defaultFormatter.Percentage(v) }
func Score(v float64) string      { return defaultFormatter.Score(v) }
func DateTime(t time.Time) string { return defaultFormatter.DateTime(t) }
