package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/tally/internal/apperror"
	"github.com/abdul-hamid-achik/tally/internal/tally/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, message(err))
		os.Exit(1)
	}
}

// message prefers the user-facing text of application errors.
func message(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
