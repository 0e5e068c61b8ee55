package sectorio

import (
	"io"
	"os"

	"github.com/oasis-go/oasisutil/internal/geometry"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// rawBacking is a flat image where logical sector N lives at byte offset
// N*256 -- a raw OASIS image has no notion of track boundaries at all,
// only total sector count.
type rawBacking struct {
	f        *os.File
	readOnly bool
	total    int
}

func openRaw(path string, readOnly bool) (*rawBacking, error) {
	flag := os.O_RDONLY
	if !readOnly {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, oasiserr.Wrapf(oasiserr.KindIO, err, "open %q", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, oasiserr.Wrapf(oasiserr.KindIO, err, "stat %q", path)
	}

	return &rawBacking{
		f:        f,
		readOnly: readOnly,
		total:    int(info.Size() / geometry.SectorSize),
	}, nil
}

func (r *rawBacking) TotalSectors() int { return r.total }
func (r *rawBacking) ReadOnly() bool    { return r.readOnly }

// ReadSectors reads n sectors starting at lba into buf. Reads entirely past
// the end of the image return a short count rather than an error.
func (r *rawBacking) ReadSectors(lba, n int, buf []byte) (int, error) {
	if err := checkLen(buf, n); err != nil {
		return 0, err
	}
	if lba < 0 || n < 0 {
		return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "invalid lba=%d n=%d", lba, n)
	}
	if lba >= r.total {
		return 0, nil
	}
	if lba+n > r.total {
		n = r.total - lba
	}

	off := int64(lba) * geometry.SectorSize
	read, err := r.f.ReadAt(buf[:n*geometry.SectorSize], off)
	sectorsRead := read / geometry.SectorSize
	if err != nil && err != io.EOF {
		return sectorsRead, oasiserr.Wrapf(oasiserr.KindIO, err, "read sectors [%d,%d)", lba, lba+n)
	}
	return sectorsRead, nil
}

// WriteSectors writes n sectors starting at lba, extending the file if
// necessary, and flushes immediately so any reader sharing the backing
// file observes the change.
func (r *rawBacking) WriteSectors(lba, n int, buf []byte) (int, error) {
	if r.readOnly {
		return 0, oasiserr.New(oasiserr.KindReadOnly, "image opened read-only")
	}
	if err := checkLen(buf, n); err != nil {
		return 0, err
	}
	if lba < 0 || n < 0 {
		return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "invalid lba=%d n=%d", lba, n)
	}

	off := int64(lba) * geometry.SectorSize
	written, err := r.f.WriteAt(buf[:n*geometry.SectorSize], off)
	sectorsWritten := written / geometry.SectorSize
	if err != nil {
		return sectorsWritten, oasiserr.Wrapf(oasiserr.KindIO, err, "write sectors [%d,%d)", lba, lba+n)
	}
	if err := r.f.Sync(); err != nil {
		return sectorsWritten, oasiserr.Wrap(oasiserr.KindIO, err, "flush after write")
	}
	if lba+n > r.total {
		r.total = lba + n
	}
	return sectorsWritten, nil
}

func (r *rawBacking) Close() error {
	if err := r.f.Close(); err != nil {
		return oasiserr.Wrap(oasiserr.KindIO, err, "close")
	}
	return nil
}
