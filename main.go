package main

import (
	"fmt"
	"os"

	"bcgov/pay-reconciler/cmd/backfill"
	"bcgov/pay-reconciler/cmd/reconcile"
	"bcgov/pay-reconciler/cmd/report"
	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/cmd/serve"
	"bcgov/pay-reconciler/cmd/shortnames"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(reconcile.Cmd)
	root.Cmd.AddCommand(backfill.Cmd)
	root.Cmd.AddCommand(report.Cmd)
	root.Cmd.AddCommand(shortnames.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
