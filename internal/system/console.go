package system

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Palette, Vitesse Dark Soft.
var (
	ColorPrimary = lipgloss.Color("#4d9375")
	ColorBlue    = lipgloss.Color("#6394bf")
	ColorYellow  = lipgloss.Color("#e6cc77")
	ColorRed     = lipgloss.Color("#cb7676")
	ColorMuted   = lipgloss.Color("#bfbaaa")
)

// Console writes user-facing status lines.
type Console struct {
	w      io.Writer
	r      *lipgloss.Renderer
	info   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
}

// NewConsole styles output for w; colour is dropped when w is not a terminal.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:      w,
		r:      r,
		info:   r.NewStyle().Foreground(ColorBlue).Bold(true),
		ok:     r.NewStyle().Foreground(ColorPrimary).Bold(true),
		warn:   r.NewStyle().Foreground(ColorYellow).Bold(true),
		err:    r.NewStyle().Foreground(ColorRed).Bold(true),
		header: r.NewStyle().Foreground(ColorPrimary).Bold(true).Underline(true),
		muted:  r.NewStyle().Foreground(ColorMuted),
	}
}

func (c *Console) Writer() io.Writer { return c.w }

// Renderer is the lipgloss renderer bound to the console's writer.
func (c *Console) Renderer() *lipgloss.Renderer { return c.r }

func (c *Console) Info(format string, args ...any) { c.line(c.info, "[info]", format, args...) }

func (c *Console) Success(format string, args ...any) { c.line(c.ok, "[ok]", format, args...) }

func (c *Console) Warn(format string, args ...any) { c.line(c.warn, "[warn]", format, args...) }

func (c *Console) Error(format string, args ...any) { c.line(c.err, "[error]", format, args...) }

// Header starts a section.
func (c *Console) Header(title string) {
	fmt.Fprintf(c.w, "\n%s\n", c.header.Render(title))
}

// Detail prints an indented secondary line, e.g. a stderr tail or a hint.
func (c *Console) Detail(format string, args ...any) {
	fmt.Fprintf(c.w, "       %s\n", c.muted.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) line(st lipgloss.Style, tag, format string, args ...any) {
	fmt.Fprintf(c.w, "%s %s\n", st.Render(tag), fmt.Sprintf(format, args...))
}
