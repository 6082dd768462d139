// ABOUTME: Minimal Ogg page writer
// ABOUTME: Puts each packet of one logical stream on its own checksummed page
package encode

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	oggFlagBOS = 0x02
	oggFlagEOS = 0x04

	oggMaxSegments = 255
)

// Ogg uses the unreflected CRC-32 with polynomial 0x04c11db7
var oggCRCTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for range 8 {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

func oggCRC(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

type oggWriter struct {
	w        io.Writer
	serial   uint32
	sequence uint32
	started  bool
}

// writePacket writes packet as one page ending at granule
func (o *oggWriter) writePacket(packet []byte, granule int64, last bool) error {
	segments := len(packet)/255 + 1
	if segments > oggMaxSegments {
		return fmt.Errorf("ogg packet too large: %d bytes", len(packet))
	}

	page := make([]byte, 27+segments+len(packet))
	copy(page, "OggS")
	var flags byte
	if !o.started {
		flags |= oggFlagBOS
		o.started = true
	}
	if last {
		flags |= oggFlagEOS
	}
	page[5] = flags
	binary.LittleEndian.PutUint64(page[6:], uint64(granule))
	binary.LittleEndian.PutUint32(page[14:], o.serial)
	binary.LittleEndian.PutUint32(page[18:], o.sequence)
	page[26] = byte(segments)

	lacing := page[27 : 27+segments]
	for i := range segments - 1 {
		lacing[i] = 255
	}
	lacing[segments-1] = byte(len(packet) % 255)
	copy(page[27+segments:], packet)

	binary.LittleEndian.PutUint32(page[22:], oggCRC(page))

	o.sequence++
	if _, err := o.w.Write(page); err != nil {
		return fmt.Errorf("ogg write error: %w", err)
	}
	return nil
}
