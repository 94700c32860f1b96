package pkg

import (
	"fmt"
	"io"

	"github.com/mitchellh/colorstring"
)

// Printer writes the headline style output of list and plan
type Printer struct {
	Out     io.Writer
	NoColor bool
}

func (p Printer) print(format string, args ...interface{}) {
	c := colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: p.NoColor,
		Reset:   true,
	}
	fmt.Fprint(p.Out, c.Color(fmt.Sprintf(format, args...)))
}

// PrintTask prints a headline
func (p Printer) PrintTask(msg string) {
	p.print("[blue][bold]==>[default] %s\n", msg)
}

// PrintSubtask prints an indented item below a headline
func (p Printer) PrintSubtask(msg string) {
	p.print("[green][bold]  ->[reset] %s\n", msg)
}

// PrintError prints an indented error item
func (p Printer) PrintError(msg string) {
	p.print("[red][bold]  ->[reset] %s\n", msg)
}
