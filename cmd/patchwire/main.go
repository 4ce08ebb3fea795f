package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwire/internal/errors"
	"github.com/vango-dev/patchwire/pkg/protocol"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌┬┐┌─┐┬ ┬┬ ┬┬┬─┐┌─┐
  ├─┘├─┤ │ │  ├─┤││││├┬┘├┤
  ┴  ┴ ┴ ┴ └─┘┴ ┴└┴┘┴┴└─└─┘
`

// globals holds the persistent flags.
type globals struct {
	configDir string
	noColor   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "patchwire",
		Short: "Server-side virtual DOM diffing over a signed patch protocol",
		Long: `Patchwire renders components on the server, diffs each new render
against the last one and ships the patches to the browser together with
the signed component state.

The CLI exposes the pieces on their own:

  • diff two markup files into a patch stream
  • apply a patch stream to a markup file
  • parse markup into the wire tree
  • sign and verify component state
  • serve components over HTTP and WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configDir, "config", "c", ".", "Directory holding patchwire.json or patchwire.yaml")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		diffCmd(),
		applyCmd(),
		parseCmd(),
		signCmd(g),
		verifyCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// readInput reads a file argument; "-" reads standard input.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.New("P020").WithDetail(path).Wrap(err)
	}
	return data, nil
}

// wireMode resolves the --mode and --minify flags.
func wireMode(mode string, minify bool) (protocol.Mode, error) {
	if minify {
		return protocol.ModeMinified, nil
	}
	m, ok := protocol.ParseMode(mode)
	if !ok {
		return 0, errors.New("P041").
			WithDetail(fmt.Sprintf("unknown mode %q", mode)).
			WithSuggestion("Use --mode=full or --mode=minified")
	}
	return m, nil
}

// writeJSON prints encoded JSON, indented when pretty is set.
func writeJSON(w io.Writer, data []byte, pretty bool) error {
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err := fmt.Fprintf(w, "%s\n", data)
	return err
}
