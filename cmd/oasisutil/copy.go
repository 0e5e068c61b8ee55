package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileops"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

var (
	copyOwner      int
	copyTargetName string
	copyTargetType string
	copyASCII      bool
)

// copyCmd implements the host->disk copy operation: the host filename is
// parsed through the same suffix grammar extract produces, so
// "report.txt" or "REPORT.TXT_SRW_80" both resolve to a name/type pair
// (name and type are upper-cased; the suffix letters must already be
// upper-case).
var copyCmd = &cobra.Command{
	Use:   "copy IMAGE HOSTFILE",
	Short: "Copy a host file into a disk image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, hostPath := args[0], args[1]

		data, err := os.ReadFile(hostPath)
		if err != nil {
			return oasiserr.Wrapf(oasiserr.KindIO, err, "read %q", hostPath)
		}

		parsed, err := deb.ParseHostFilename(filepath.Base(hostPath))
		if err != nil {
			return err
		}

		owner, _, err := ownerFilter(copyOwner)
		if err != nil {
			return err
		}

		l, backing, err := openLayout(imagePath, false)
		if err != nil {
			return err
		}
		defer backing.Close()

		if err := fileops.Copy(l, parsed.FileName, parsed.FileType, data, fileops.CopyOptions{
			TargetName:      copyTargetName,
			TargetType:      copyTargetType,
			OwnerID:         owner,
			ASCIIConversion: copyASCII,
		}); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	copyCmd.Flags().IntVar(&copyOwner, "owner-id-filter", 0, "owner id to file the copied entry under")
	copyCmd.Flags().StringVar(&copyTargetName, "target-name", "", "override the disk file name (default: derived from HOSTFILE)")
	copyCmd.Flags().StringVar(&copyTargetType, "target-type", "", "override the disk file type (default: derived from HOSTFILE)")
	copyCmd.Flags().BoolVar(&copyASCII, "ascii-conversion", false, "convert host line endings to OASIS line endings on 7-bit text")
	rootCmd.AddCommand(copyCmd)
}
