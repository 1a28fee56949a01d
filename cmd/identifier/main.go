package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openoj/judge-api/cmd/identifier/cmds"
)

func runApp(ctx context.Context) int {
	err := cmds.Execute(ctx)
	if err != nil {
		if errors.Is(err, cmds.ErrMismatch) {
			return 1
		}

		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		return 2
	}

	return 0
}

func main() {
	ctx := context.Background()
	os.Exit(runApp(ctx))
}
