package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "Lumen bytecode VM driver",
	Long:  "Lumen runs hand-assembled InstructionBlocks against the runtime core: heap, call frames, catch tables and the event loop.",
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a YAML runtime-flags file")
	rootCmd.PersistentFlags().Bool("trace-opcodes", false, "log every dispatched opcode")
	rootCmd.PersistentFlags().Bool("trace-gc", false, "log every GC cycle")
	rootCmd.PersistentFlags().Bool("trace-frames", false, "log frame enter/return")
	rootCmd.PersistentFlags().Bool("trace-catchtables", false, "log catch-table unwinds")
	rootCmd.PersistentFlags().Bool("instruction-profile", false, "tally dispatched opcodes and print a frequency report on exit")
	rootCmd.PersistentFlags().Bool("verbose-addresses", false, "include heap handles in frame/catch trace lines")
	rootCmd.PersistentFlags().Int64("tick-budget", -1, "halt after this many dispatched opcodes (-1 = unlimited)")
	rootCmd.PersistentFlags().Int("worker-pool-size", defaultConfig().WorkerPoolSize, "number of goroutines servicing blocking native calls")
	rootCmd.PersistentFlags().Bool("single-worker-thread", false, "force worker-pool-size to 1, for deterministic traces")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
