package main

import (
	"fmt"
	"os"

	"fjacquet/invoice-reconciler/cmd/audit"
	"fjacquet/invoice-reconciler/cmd/check"
	"fjacquet/invoice-reconciler/cmd/fetch"
	"fjacquet/invoice-reconciler/cmd/normalize"
	"fjacquet/invoice-reconciler/cmd/ocr"
	"fjacquet/invoice-reconciler/cmd/organize"
	"fjacquet/invoice-reconciler/cmd/root"
	"fjacquet/invoice-reconciler/cmd/settings"
	"fjacquet/invoice-reconciler/cmd/stage"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(settings.Cmd)
	root.Cmd.AddCommand(audit.Cmd)
	root.Cmd.AddCommand(organize.Cmd)
	root.Cmd.AddCommand(normalize.Cmd)
	root.Cmd.AddCommand(check.Cmd)
	root.Cmd.AddCommand(ocr.Cmd)
	root.Cmd.AddCommand(stage.Cmd)
	root.Cmd.AddCommand(fetch.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
