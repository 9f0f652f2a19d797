package main

import (
	"elabftw-tools/cmd/elabctl/commands"
	"elabftw-tools/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()
	commands.ExecuteContext(ctx)
}
