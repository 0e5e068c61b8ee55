package main

import (
	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/fileops"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/oasislog"
	"github.com/oasis-go/oasisutil/internal/wildcard"
)

var (
	erasePattern string
	eraseOwner   int
)

// eraseCmd deallocates every DEB matching pattern (and owner, if filtered),
// flushing once after all matches are removed.
var eraseCmd = &cobra.Command{
	Use:   "erase IMAGE",
	Short: "Erase files matching a pattern from a disk image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, backing, err := openLayout(args[0], false)
		if err != nil {
			return err
		}
		defer backing.Close()

		owner, filterOwner, err := ownerFilter(eraseOwner)
		if err != nil {
			return err
		}

		erased := 0
		for i, d := range l.Directory {
			if !d.Format.IsValid() {
				continue
			}
			if filterOwner && d.OwnerID != owner {
				continue
			}
			if !wildcard.Match(d.FileName+"."+d.FileType, erasePattern) {
				continue
			}
			if err := fileops.Erase(l, i); err != nil {
				return err
			}
			oasislog.Logger().WithField("slot", i).Info("erased")
			erased++
		}

		if erased == 0 {
			return oasiserr.Newf(oasiserr.KindNotFound, "no file matched pattern %q", erasePattern)
		}
		return l.Flush()
	},
}

func init() {
	eraseCmd.Flags().StringVar(&erasePattern, "pattern", wildcard.MatchAll, "FNAME.FTYPE pattern (NULL, *, or *.* matches all)")
	eraseCmd.Flags().IntVar(&eraseOwner, "owner-id-filter", -1, "restrict erase to one owner id (-1 = any)")
	rootCmd.AddCommand(eraseCmd)
}
