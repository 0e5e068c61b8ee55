package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd is the geometry/metadata printer: header fields, bitmap
// occupancy, and directory sector count.
var infoCmd = &cobra.Command{
	Use:   "info IMAGE",
	Short: "Print filesystem header, bitmap, and directory summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, backing, err := openLayout(args[0], true)
		if err != nil {
			return err
		}
		defer backing.Close()

		h := l.Header
		fmt.Printf("label:              %q\n", h.Label)
		fmt.Printf("timestamp:          %+v\n", h.Timestamp)
		fmt.Printf("backup volume:      %q\n", h.BackupVol)
		fmt.Printf("heads:              %d (drive type %d)\n", h.HeadCount(), h.DriveType())
		fmt.Printf("cylinders:          %d\n", h.NumCylinders)
		fmt.Printf("sectors/track:      %d\n", h.NumSectors)
		fmt.Printf("dir sectors:        %d (%d DEBs)\n", h.DirSectorsMax, len(l.Directory))
		fmt.Printf("additional AM secs: %d\n", h.AdditionalAMSectors())
		fmt.Printf("write protected:    %v\n", h.WriteProtected())
		fmt.Printf("free blocks:        %d / %d\n", h.FreeBlocks, l.Bitmap.NumBlocks())
		fmt.Printf("largest free run:   %d blocks\n", l.Bitmap.LargestFreeRun())
		fmt.Printf("total sectors:      %d\n", backing.TotalSectors())
		fmt.Printf("read only:          %v\n", backing.ReadOnly())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
