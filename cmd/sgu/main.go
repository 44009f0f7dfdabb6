package main

import (
	"os"
	"strconv"
	"strings"

	"sgu-cli/internal/cli"
)

func isUserID(s string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil && n > 0
}

// rewriteDirectUserLookupArgs makes `sgu <id>` behave like `sgu users show <id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
// parsing. Persistent flags may come first (`sgu --port 9090 7`), so the first
// positional token is located by skipping known value flags.
func rewriteDirectUserLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config":  true,
		"--host":    true,
		"--port":    true,
		"--base":    true,
		"--timeout": true,
		"--format":  true,
		"--log":     true,
	}

	rewrite := func(at int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:at]...)
		out = append(out, "users", "show")
		out = append(out, argv[at:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			// The subcommand has to precede "--" or cobra treats it as an argument.
			if i+1 < len(argv) && isUserID(argv[i+1]) {
				return rewrite(i)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isUserID(a) {
			return rewrite(i)
		}
		return argv
	}
	return argv
}

func main() {
	if err := cli.Execute(rewriteDirectUserLookupArgs(os.Args)[1:]); err != nil {
		os.Exit(1)
	}
}
