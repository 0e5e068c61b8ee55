package main

import (
	"github.com/oasis-go/oasisutil/internal/layout"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/sectorio"
)

// openLayout opens imagePath and loads its filesystem layout in one step,
// the pattern every subcommand that touches an existing image shares.
func openLayout(imagePath string, readOnly bool) (*layout.Layout, sectorio.Backing, error) {
	backing, err := sectorio.Open(imagePath, readOnly)
	if err != nil {
		return nil, nil, err
	}
	l, err := layout.Load(backing)
	if err != nil {
		_ = backing.Close()
		return nil, nil, err
	}
	return l, backing, nil
}

// ownerFilter parses the owner_id_filter CLI option: -1 means "any owner",
// 0-255 selects one.
func ownerFilter(v int) (byte, bool, error) {
	if v == -1 {
		return 0, false, nil
	}
	if v < 0 || v > 255 {
		return 0, false, oasiserr.Newf(oasiserr.KindInvalidArgument, "owner_id_filter %d out of range [-1,255]", v)
	}
	return byte(v), true, nil
}
