// ABOUTME: Minimal Ogg container demuxer
// ABOUTME: Splits the first logical bitstream of an Ogg file into packets
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	oggHeaderSize = 27
	oggFlagEOS    = 0x04
)

// oggPacketReader yields the packets of the first logical stream in an
// in-memory Ogg file. Pages of other streams are skipped.
type oggPacketReader struct {
	data []byte
	pos  int

	serial    uint32
	hasSerial bool

	segments []byte
	body     []byte
	segIdx   int
	bodyPos  int

	partial []byte

	pageGranule int64
	pageEOS     bool

	// granule position and end-of-stream flag of the page that completed
	// the last packet returned by next
	granule int64
	eos     bool
}

func newOggPacketReader(data []byte) *oggPacketReader {
	return &oggPacketReader{data: data}
}

// next returns the next complete packet, or io.EOF
func (r *oggPacketReader) next() ([]byte, error) {
	for {
		if r.segIdx >= len(r.segments) {
			if err := r.readPage(); err != nil {
				return nil, err
			}
			continue
		}

		size := int(r.segments[r.segIdx])
		r.segIdx++
		r.partial = append(r.partial, r.body[r.bodyPos:r.bodyPos+size]...)
		r.bodyPos += size

		// a lacing value below 255 terminates the packet
		if size < 255 {
			packet := r.partial
			r.partial = nil
			r.granule = r.pageGranule
			r.eos = r.pageEOS
			return packet, nil
		}
	}
}

func (r *oggPacketReader) readPage() error {
	for {
		if r.pos >= len(r.data) {
			return io.EOF
		}
		if len(r.data)-r.pos < oggHeaderSize {
			return fmt.Errorf("%w: ogg page header", ErrTruncated)
		}

		header := r.data[r.pos:]
		if string(header[:4]) != "OggS" {
			return fmt.Errorf("%w: missing ogg capture pattern at offset %d", ErrUnknownFormat, r.pos)
		}

		serial := binary.LittleEndian.Uint32(header[14:18])
		numSegments := int(header[26])
		if len(header) < oggHeaderSize+numSegments {
			return fmt.Errorf("%w: ogg segment table", ErrTruncated)
		}
		segments := header[oggHeaderSize : oggHeaderSize+numSegments]

		bodySize := 0
		for _, s := range segments {
			bodySize += int(s)
		}
		start := oggHeaderSize + numSegments
		if len(header) < start+bodySize {
			return fmt.Errorf("%w: ogg page body", ErrTruncated)
		}

		r.pos += start + bodySize

		if !r.hasSerial {
			r.serial = serial
			r.hasSerial = true
		}
		if serial != r.serial {
			continue
		}

		r.segments = segments
		r.body = header[start : start+bodySize]
		r.pageGranule = int64(binary.LittleEndian.Uint64(header[6:14]))
		r.pageEOS = header[5]&oggFlagEOS != 0
		r.segIdx = 0
		r.bodyPos = 0
		return nil
	}
}
