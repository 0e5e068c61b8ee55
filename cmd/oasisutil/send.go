package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/deb"
	"github.com/oasis-go/oasisutil/internal/fileio"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/pcap"
	"github.com/oasis-go/oasisutil/internal/transport"
	"github.com/oasis-go/oasisutil/internal/wildcard"
)

// cmdData is the chunked file-data packet command byte. The core
// transport codec only pins down the OPEN command's payload (a DEB); a
// data-transfer command byte is a CLI-level framing choice layered on top,
// not part of the core transport codec's contract.
const cmdData byte = 'D'

var (
	sendPattern string
	sendDevice  string
	sendPcap    string
)

// sendCmd opens the serial device as a transport.Port, sends the matched
// file's DEB as an OPEN packet, then streams its data in
// transport.PayloadCapacity-sized DATA packets.
var sendCmd = &cobra.Command{
	Use:   "send IMAGE",
	Short: "Send a file matched by pattern over a serial device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, backing, err := openLayout(args[0], true)
		if err != nil {
			return err
		}
		defer backing.Close()

		var match *int
		for i, d := range l.Directory {
			if !d.Format.IsValid() || !wildcard.Match(d.FileName+"."+d.FileType, sendPattern) {
				continue
			}
			if match != nil {
				return oasiserr.Newf(oasiserr.KindAmbiguous, "pattern %q matched more than one file", sendPattern)
			}
			idx := i
			match = &idx
		}
		if match == nil {
			return oasiserr.Newf(oasiserr.KindNotFound, "pattern %q matched no file", sendPattern)
		}
		d := l.Directory[*match]

		data, err := fileio.Read(l, d)
		if err != nil {
			return err
		}

		port, closer, err := openSerialPort(sendDevice)
		if err != nil {
			return err
		}
		defer closer()

		sess := transport.NewSession(port)

		rec, err := newCapture(sendPcap)
		if err != nil {
			return err
		}
		defer rec.close()

		if err := sess.SendOpen(d); err != nil {
			return err
		}
		rec.record(pcap.DirectionSent, d)

		for off := 0; off < len(data); off += transport.PayloadCapacity {
			end := off + transport.PayloadCapacity
			if end > len(data) {
				end = len(data)
			}
			if err := sess.Send(cmdData, data[off:end]); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendPattern, "pattern", wildcard.MatchAll, "FNAME.FTYPE pattern; must match exactly one file")
	sendCmd.Flags().StringVar(&sendDevice, "device", "", "serial device path (opened as a plain read/write handle)")
	sendCmd.Flags().StringVar(&sendPcap, "pcap", "", "optional PCAP capture file path")
	sendCmd.MarkFlagRequired("device")
	rootCmd.AddCommand(sendCmd)
}

// openSerialPort opens path as a plain file handle and wraps it as a
// transport.Port. Real line discipline (baud rate, parity, RTS/CTS) is
// outside the core transport codec's contract -- the CLI only needs
// something satisfying io.ReadWriter plus an optional timeout.
func openSerialPort(path string) (transport.Port, func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, oasiserr.Wrapf(oasiserr.KindIO, err, "open serial device %q", path)
	}
	return transport.AsPort(f), func() { _ = f.Close() }, nil
}

// capture wraps an optional pcap.Writer so send/receive can call record/close
// unconditionally whether or not --pcap was given.
type capture struct {
	w *pcap.Writer
	f *os.File
}

func newCapture(path string) (*capture, error) {
	if path == "" {
		return &capture{}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, oasiserr.Wrapf(oasiserr.KindIO, err, "create pcap file %q", path)
	}
	w, err := pcap.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &capture{w: w, f: f}, nil
}

func (c *capture) record(dir pcap.Direction, d deb.DEB) {
	if c.w == nil {
		return
	}
	raw, err := deb.Encode(d)
	if err != nil {
		return
	}
	_ = c.w.WriteFrame(time.Now(), dir, 0, raw)
}

func (c *capture) close() {
	if c.f != nil {
		_ = c.f.Close()
	}
}
