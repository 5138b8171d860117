package main

import (
	"go-dice/cmd/diceserv/render"
	"go-dice/pkg/lib"
)

func main() {
	for _, m := range []render.Mode{render.ModeRoll, render.ModeExroll, render.ModeCalc, render.ModeExcalc} {
		rootCmd.AddCommand(newRollCommand(m))
	}
	rootCmd.AddCommand(newEarthdawnCommand())
	rootCmd.AddCommand(newDnD3eCommand())
	rootCmd.AddCommand(functionsCmd)
	rootCmd.AddCommand(newShellCommand())
	rootCmd.AddCommand(newTableCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(newCompletionsCommand())

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}
