package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileio"
	"github.com/oasis-go/oasisutil/internal/oasisascii"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
	"github.com/oasis-go/oasisutil/internal/wildcard"
)

var (
	extractPattern string
	extractOwner   int
	extractOutDir  string
	extractASCII   bool
)

// extractCmd copies one or more matching disk files out to host files named
// by their canonical host filename encoding (deb.FormatHostFilename).
var extractCmd = &cobra.Command{
	Use:   "extract IMAGE",
	Short: "Extract files matching a pattern from a disk image to the host filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, backing, err := openLayout(args[0], true)
		if err != nil {
			return err
		}
		defer backing.Close()

		owner, filterOwner, err := ownerFilter(extractOwner)
		if err != nil {
			return err
		}

		if extractOutDir != "" {
			if err := os.MkdirAll(extractOutDir, 0o755); err != nil {
				return oasiserr.Wrapf(oasiserr.KindIO, err, "create output directory %q", extractOutDir)
			}
		}

		matched := 0
		for _, d := range l.Directory {
			if !d.Format.IsValid() {
				continue
			}
			if filterOwner && d.OwnerID != owner {
				continue
			}
			if !wildcard.Match(d.FileName+"."+d.FileType, extractPattern) {
				continue
			}

			data, err := fileio.Read(l, d)
			if err != nil {
				return err
			}
			if extractASCII && oasisascii.Is7Bit(data) {
				data = oasisascii.OasisToHost(data)
			}

			hostName, err := deb.FormatHostFilename(d)
			if err != nil {
				return err
			}
			outPath := filepath.Join(extractOutDir, hostName)
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return oasiserr.Wrapf(oasiserr.KindIO, err, "write %q", outPath)
			}
			oasislog.Logger().WithField("file", hostName).Info("extracted")
			matched++
		}

		if matched == 0 {
			return oasiserr.Newf(oasiserr.KindNotFound, "no file matched pattern %q", extractPattern)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractPattern, "pattern", wildcard.MatchAll, "FNAME.FTYPE pattern (NULL, *, or *.* matches all)")
	extractCmd.Flags().IntVar(&extractOwner, "owner-id-filter", -1, "restrict extraction to one owner id (-1 = any)")
	extractCmd.Flags().StringVar(&extractOutDir, "out-dir", ".", "host directory to write extracted files into")
	extractCmd.Flags().BoolVar(&extractASCII, "ascii-conversion", false, "convert OASIS line endings/SUB sentinel to host text")
	rootCmd.AddCommand(extractCmd)
}
