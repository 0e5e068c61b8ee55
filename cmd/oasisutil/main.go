// Command oasisutil is the CLI surface over the OASIS filesystem engine,
// sector I/O, and serial transport packages: list, extract, copy, erase,
// rename, initdisk, and send/receive a disk image.
//
// Follows the common cobra layout of one package-level *cobra.Command var
// per verb, wired together in each file's init(). Kept deliberately thin:
// this package only parses flags, opens a sectorio handle, and calls into
// the core packages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
	"github.com/oasis-go/oasisutil/internal/version"
)

var (
	logLevel string
	logFile  string
)

var rootCmd = &cobra.Command{
	Use:           "oasisutil",
	Short:         "Read, write, and transfer files on OASIS operating system disk images",
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return oasislog.Setup(logLevel, logFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "redirect log output to this file instead of stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "oasisutil:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an oasiserr.Kind to a process exit status; every other
// error (argument parsing, etc.) exits 1.
func exitCode(err error) int {
	switch oasiserr.KindOf(err) {
	case oasiserr.KindUnknown:
		return 1
	default:
		return 2
	}
}
