// Package ui renders the command line output: banners, stage progress and
// the end-of-run summary.
package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ASCIILogo is printed at the start of an interactive run.
const ASCIILogo = `
    ╔═══════════════════════════════════════════════════╗
    ║ ███████╗███╗   ██╗ ██████╗  █████╗  ██████╗ ███████╗ ║
    ║ ██╔════╝████╗  ██║██╔════╝ ██╔══██╗██╔════╝ ██╔════╝ ║
    ║ █████╗  ██╔██╗ ██║██║  ███╗███████║██║  ███╗█████╗   ║
    ║ ██╔══╝  ██║╚██╗██║██║   ██║██╔══██║██║   ██║██╔══╝   ║
    ║ ███████╗██║ ╚████║╚██████╔╝██║  ██║╚██████╔╝███████╗ ║
    ║ ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚══════╝ ║
    ║          POST ENGAGEMENT COLLECTOR                   ║
    ╚═══════════════════════════════════════════════════╝
`

// Out is where the Print helpers write.
var Out io.Writer = os.Stdout

// NoColor disables ANSI colors. It starts true when stdout is not a
// terminal.
var NoColor = !term.IsTerminal(int(os.Stdout.Fd()))

var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
	Bold    = colorize("\033[1m%s\033[0m")
)

func colorize(format string) func(string) string {
	return func(text string) string {
		if NoColor {
			return text
		}
		return fmt.Sprintf(format, text)
	}
}

// PrintLogo prints the logo in cyan.
func PrintLogo() {
	fmt.Fprint(Out, Cyan(ASCIILogo))
}

// PrintError prints msg in red, followed by the first arg if any.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(Out, Red(msg))
}

func PrintSuccess(msg string) {
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label/value pair.
func PrintInfo(label, value string) {
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(Out, Yellow(msg))
}

func PrintHighlight(msg string) {
	fmt.Fprintln(Out, Magenta(msg))
}
