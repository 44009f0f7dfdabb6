package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (app *App) isInteractive() bool {
	if app.interactive != nil {
		return app.interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (app *App) input() io.Reader {
	if app.stdin != nil {
		return app.stdin
	}
	return os.Stdin
}

// confirm asks a yes/no question on stderr. Anything but y/yes declines.
func (app *App) confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(app.input()).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(cmd.ErrOrStderr())
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
