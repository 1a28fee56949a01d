package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openoj/judge-api/internal/identifier"
)

// ErrMismatch distinguishes "file does not match" from operational failures
// in the process exit code.
var ErrMismatch = errors.New("declared language does not match")

var (
	language identifier.Language
	path     string
)

var rootCmd = &cobra.Command{
	Use:           "identifier",
	Short:         "Checks a source file against a declared language",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		matches := identifier.Matches(language.String(), path, content)
		fmt.Println(matches)

		if !matches {
			return ErrMismatch
		}

		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Flags().Var(&language, "language", `declared language, e.g. "cpp" or "java"`)
	rootCmd.Flags().StringVar(&path, "path", "", "Path to file to check")
	for _, flag := range []string{"language", "path"} {
		err := rootCmd.MarkFlagRequired(flag)
		if err != nil {
			panic("Internal error contact a contributor [path-flag-required]")
		}
	}
}
