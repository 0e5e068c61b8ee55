package main

import (
	"bufio"
	"io"

	"github.com/spf13/cobra"

	"github.com/oasis-go/oasisutil/internal/fileops"
	"github.com/oasis-go/oasisutil/internal/oasiserr"
	"github.com/oasis-go/oasisutil/internal/pcap"
	"github.com/oasis-go/oasisutil/internal/transport"
)

var (
	receiveDevice  string
	receivePcap    string
	receiveOwner   int
)

// receiveCmd reads an OPEN packet (the incoming DEB) followed by zero or
// more DATA packets until the peer stops sending, then writes the
// assembled file into IMAGE under the DEB's name via fileops.Copy.
var receiveCmd = &cobra.Command{
	Use:   "receive IMAGE",
	Short: "Receive a file over a serial device and copy it into a disk image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, closer, err := openSerialPort(receiveDevice)
		if err != nil {
			return err
		}
		defer closer()

		owner, _, err := ownerFilter(receiveOwner)
		if err != nil {
			return err
		}

		rec, err := newCapture(receivePcap)
		if err != nil {
			return err
		}
		defer rec.close()

		sess := transport.NewSession(port)
		reader := bufio.NewReader(port)
		readFrame := frameReader(reader)

		d, err := sess.ReceiveOpen(readFrame)
		if err != nil {
			return err
		}
		rec.record(pcap.DirectionReceived, d)

		var data []byte
		for {
			cmdByte, payload, err := sess.Receive(readFrame)
			if err != nil {
				if oasiserr.KindOf(err) == oasiserr.KindIO {
					break
				}
				return err
			}
			if cmdByte != cmdData {
				return oasiserr.Newf(oasiserr.KindInvalidArgument, "expected DATA command, got 0x%02X", cmdByte)
			}
			data = append(data, payload...)
			if len(payload) < transport.PayloadCapacity {
				break
			}
		}

		l, backing, err := openLayout(args[0], false)
		if err != nil {
			return err
		}
		defer backing.Close()

		return fileops.Copy(l, d.FileName, d.FileType, data, fileops.CopyOptions{
			OwnerID: owner,
		})
	},
}

func init() {
	receiveCmd.Flags().StringVar(&receiveDevice, "device", "", "serial device path (opened as a plain read/write handle)")
	receiveCmd.Flags().StringVar(&receivePcap, "pcap", "", "optional PCAP capture file path")
	receiveCmd.Flags().IntVar(&receiveOwner, "owner-id-filter", 0, "owner id to file the received entry under")
	receiveCmd.MarkFlagRequired("device")
	rootCmd.AddCommand(receiveCmd)
}

// frameReader reads one DLE-STX ... DLE-ETX <LRC> 0xFF frame at a time off
// r, the shape transport.Session.Receive's readFrame callback expects.
func frameReader(r *bufio.Reader) func() ([]byte, error) {
	return func() ([]byte, error) {
		lead, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if lead != transport.DLE {
			return nil, oasiserr.New(oasiserr.KindInvalidArgument, "expected frame to start with DLE")
		}
		second, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if second != transport.STX {
			return nil, oasiserr.New(oasiserr.KindInvalidArgument, "expected STX after DLE")
		}

		frame := []byte{lead, second}
		for {
			b, err := r.ReadByte()
			if err == io.EOF {
				return nil, oasiserr.New(oasiserr.KindIO, "stream closed mid-frame")
			}
			if err != nil {
				return nil, err
			}
			frame = append(frame, b)
			if b != transport.DLE {
				continue
			}
			ctrl, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			frame = append(frame, ctrl)
			if ctrl == transport.ETX {
				lrc, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				pad, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				frame = append(frame, lrc, pad)
				return frame, nil
			}
		}
	}
}
