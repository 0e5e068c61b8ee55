package main

import (
	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileops"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/wildcard"
)

var renameOwner int

// renameCmd requires pattern to resolve to exactly one DEB (the Ambiguous
// error kind exists specifically for this operation) and refuses to
// collide with another live file under the new name/type.
var renameCmd = &cobra.Command{
	Use:   "rename IMAGE PATTERN NEWNAME.NEWTYPE",
	Short: "Rename a single file matched by pattern",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, pattern, newHostName := args[0], args[1], args[2]

		parsed, err := deb.ParseHostFilename(newHostName)
		if err != nil {
			return err
		}

		owner, filterOwner, err := ownerFilter(renameOwner)
		if err != nil {
			return err
		}

		l, backing, err := openLayout(imagePath, false)
		if err != nil {
			return err
		}
		defer backing.Close()

		match := -1
		for i, d := range l.Directory {
			if !d.Format.IsValid() {
				continue
			}
			if filterOwner && d.OwnerID != owner {
				continue
			}
			if !wildcard.Match(d.FileName+"."+d.FileType, pattern) {
				continue
			}
			if match != -1 {
				return oasiserr.Newf(oasiserr.KindAmbiguous, "pattern %q matched more than one file", pattern)
			}
			match = i
		}
		if match == -1 {
			return oasiserr.Newf(oasiserr.KindNotFound, "pattern %q matched no file", pattern)
		}

		if fileops.HasCollision(l, match, l.Directory[match].OwnerID, parsed.FileName, parsed.FileType) {
			return oasiserr.Newf(oasiserr.KindCollision, "%s.%s already exists", parsed.FileName, parsed.FileType)
		}

		if err := fileops.Rename(l, match, parsed.FileName, parsed.FileType); err != nil {
			return err
		}
		return l.Flush()
	},
}

func init() {
	renameCmd.Flags().IntVar(&renameOwner, "owner-id-filter", -1, "restrict rename match to one owner id (-1 = any)")
	rootCmd.AddCommand(renameCmd)
}
