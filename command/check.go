package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/term"

	"github.com/tminor/tycheck/diagnostics"
	"github.com/tminor/tycheck/documents"
	"github.com/tminor/tycheck/tool"
)

var colorMode string

var severityColors = map[diagnostics.Severity]*color.Color{
	diagnostics.SeverityError:       color.New(color.FgRed, color.Bold),
	diagnostics.SeverityWarning:     color.New(color.FgYellow, color.Bold),
	diagnostics.SeverityInformation: color.New(color.FgBlue, color.Bold),
	diagnostics.SeverityHint:        color.New(color.FgCyan),
}

var locationColor = color.New(color.Bold)

func init() {
	checkCommand.Flags().StringVar(&colorMode, "color", "auto", "colorize output (auto|on|off)")
	rootCommand.AddCommand(checkCommand)
}

var checkCommand = &cobra.Command{
	Use:   "check [DIR]",
	Short: "Run the linter once and print its diagnostics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		root := cfg.Root
		if len(args) > 0 {
			root = args[0]
		}
		if root == "" {
			root = "."
		}
		if root, err = filepath.Abs(root); err != nil {
			return err
		}

		switch colorMode {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		default:
			color.NoColor = !term.IsTerminal(int(os.Stdout.Fd()))
		}

		errorCount, err := check(cmd.Context(), tool.NewCommand(root, cfg.Linter...), root, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if errorCount > 0 {
			return fmt.Errorf("%d errors", errorCount)
		}
		return nil
	},
}

// check runs linter once and prints what it reports, returning the number
// of error diagnostics.
func check(ctx context.Context, linter tool.Tool, root string, writer io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	output, err := linter.Invoke(ctx, nil)
	if err != nil {
		var exitError *tool.ExitError
		if !errors.As(err, &exitError) {
			return 0, err
		}
		log.Debugf("%s", err.Error())
	}

	lists, errs := diagnostics.Parse(bytes.NewReader(output), root)
	for _, err := range errs {
		log.Warningf("%s", err.Error())
	}
	return printDiagnostics(writer, root, lists), nil
}

func printDiagnostics(writer io.Writer, root string, lists diagnostics.Lists) int {
	var errorCount int
	for _, uri := range lists.URIs() {
		name := documents.URIToPath(uri)
		if relative, err := filepath.Rel(root, name); err == nil {
			name = relative
		}

		for _, entry := range lists[uri] {
			diagnostic := entry.Diagnostic
			severity := diagnostics.SeverityOf(diagnostic.Severity)
			if severity == diagnostics.SeverityError {
				errorCount++
			}

			label := severity.String()
			if diagnostic.Code != nil {
				label = fmt.Sprintf("%s[%v]", label, diagnostic.Code.Value)
			}
			if c, ok := severityColors[severity]; ok {
				label = c.Sprint(label)
			}

			fmt.Fprintf(writer, "%s: %s: %s\n", locationColor.Sprint(location(name, diagnostic.Range)), label, diagnostic.Message)
		}
	}
	return errorCount
}

func location(name string, range_ protocol.Range) string {
	return fmt.Sprintf("%s:%d:%d", name, range_.Start.Line+1, range_.Start.Character+1)
}
