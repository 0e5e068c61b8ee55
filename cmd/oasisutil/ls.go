package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/wildcard"
)

var (
	lsPattern string
	lsOwner   int
)

// lsCmd implements the catalog listing: directory slots in slot order with
// owner, name/type plus suffix, block count, and trailing free space, printed
// straight from fmt.Printf in the style disk-image directory-listing
// commands commonly use, generalized to OASIS DEBs and owner filtering.
var lsCmd = &cobra.Command{
	Use:   "ls IMAGE",
	Short: "List the files on a disk image (catalog)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, backing, err := openLayout(args[0], true)
		if err != nil {
			return err
		}
		defer backing.Close()

		owner, filterOwner, err := ownerFilter(lsOwner)
		if err != nil {
			return err
		}

		var total uint16
		for i, d := range l.Directory {
			if !d.Format.IsValid() {
				continue
			}
			if filterOwner && d.OwnerID != owner {
				continue
			}
			name, err := deb.FormatHostFilename(d)
			if err != nil {
				return err
			}
			if !wildcard.Match(fmt.Sprintf("%s.%s", d.FileName, d.FileType), lsPattern) {
				continue
			}
			fmt.Printf("%3d  %-24s owner=%-3d blocks=%-5d records=%d\n", i, name, d.OwnerID, d.BlockCount, d.RecordCount)
			total += d.BlockCount
		}
		fmt.Printf("\n%d blocks used, %d free\n", total, l.Header.FreeBlocks)
		return nil
	},
}

func init() {
	lsCmd.Flags().StringVar(&lsPattern, "pattern", wildcard.MatchAll, "FNAME.FTYPE pattern (NULL, *, or *.* matches all)")
	lsCmd.Flags().IntVar(&lsOwner, "owner-id-filter", -1, "restrict listing to one owner id (-1 = any)")
	rootCmd.AddCommand(lsCmd)
}
