// Package output renders command results for people or, with --json, for
// scripts. Human output goes to stdout, failures to stderr.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

type Printer struct {
	out     io.Writer
	errOut  io.Writer
	json    bool
	quiet   bool
	noColor bool
}

type Option func(*Printer)

func WithJSON(enabled bool) Option {
	return func(p *Printer) { p.json = enabled }
}

func WithQuiet(enabled bool) Option {
	return func(p *Printer) { p.quiet = enabled }
}

func WithNoColor(enabled bool) Option {
	return func(p *Printer) { p.noColor = enabled }
}

func WithOutput(w io.Writer) Option {
	return func(p *Printer) { p.out = w }
}

func WithErrOutput(w io.Writer) Option {
	return func(p *Printer) { p.errOut = w }
}

func New(opts ...Option) *Printer {
	p := &Printer{out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(p)
	}
	if p.noColor {
		color.NoColor = true
	}
	return p
}

// chatty reports whether decorative output should be written.
func (p *Printer) chatty() bool {
	return !p.quiet && !p.json
}

type mark int

const (
	markOK mark = iota
	markFail
	markWarn
	markInfo
	markChild
)

// String renders at call time so a late color.NoColor still applies.
func (m mark) String() string {
	switch m {
	case markOK:
		return color.GreenString("✓")
	case markFail:
		return color.RedString("✗")
	case markWarn:
		return color.YellowString("!")
	case markChild:
		return color.HiBlackString("└─")
	default:
		return color.CyanString("→")
	}
}

func (p *Printer) line(w io.Writer, m mark, format string, args []any) {
	fmt.Fprintf(w, "%s %s\n", m, fmt.Sprintf(format, args...))
}

func (p *Printer) Printf(format string, args ...any) {
	if p.chatty() {
		fmt.Fprintf(p.out, format, args...)
	}
}

func (p *Printer) Println(args ...any) {
	if p.chatty() {
		fmt.Fprintln(p.out, args...)
	}
}

func (p *Printer) Success(format string, args ...any) {
	if p.chatty() {
		p.line(p.out, markOK, format, args)
	}
}

func (p *Printer) Warn(format string, args ...any) {
	if p.chatty() {
		p.line(p.out, markWarn, format, args)
	}
}

func (p *Printer) Info(format string, args ...any) {
	if p.chatty() {
		p.line(p.out, markInfo, format, args)
	}
}

// Indent prints a detail line under the previous one.
func (p *Printer) Indent(format string, args ...any) {
	if p.chatty() {
		fmt.Fprint(p.out, "  ")
		p.line(p.out, markChild, format, args)
	}
}

// Error is shown in quiet mode too. JSON mode reports errors through the
// process exit status instead.
func (p *Printer) Error(format string, args ...any) {
	if !p.json {
		p.line(p.errOut, markFail, format, args)
	}
}

func (p *Printer) Failed(what string, err error) {
	p.Error("%s: %v", what, err)
}

// JSON writes v indented. It ignores quiet mode.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) Section(title string) {
	if p.chatty() {
		fmt.Fprintf(p.out, "\n%s\n", color.New(color.Bold, color.FgCyan).Sprint(title))
	}
}

func (p *Printer) KeyValue(key, value string) {
	if p.chatty() {
		fmt.Fprintf(p.out, "  %s: %s\n", color.HiBlackString(key), value)
	}
}

// Totals prints a one-line outcome of a multi-part operation.
func (p *Printer) Totals(succeeded, failed int, noun string) {
	if !p.chatty() {
		return
	}
	total := succeeded + failed
	if failed == 0 {
		fmt.Fprintln(p.out, color.GreenString("%d/%d %s loaded", succeeded, total, noun))
		return
	}
	fmt.Fprintln(p.out, color.YellowString("%d/%d %s loaded (%d unavailable)", succeeded, total, noun, failed))
}

// Message prints one chat turn. Assistant turns are highlighted.
func (p *Printer) Message(author, text string, assistant bool) {
	if !p.chatty() {
		return
	}
	style := color.New(color.Bold)
	if assistant {
		style.Add(color.FgCyan)
	}
	fmt.Fprintf(p.out, "%s\n%s\n\n", style.Sprint(author), text)
}
