// Command tdwizard is the field-agent CLI of the test-drive intake wizard.
//
// Usage:
//
//	tdwizard start
//	tdwizard customer --first-name Ana --last-name Diaz --dni 12.345.678-9
//	tdwizard next
//	tdwizard status
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"testdrive-wizard/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
