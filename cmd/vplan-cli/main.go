package main

import (
	"vplan-backend/cmd/vplan-cli/commands"
	"vplan-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
