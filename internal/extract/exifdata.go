package extract

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	maxTiffSize = 64 << 20
	maxIFDs     = 32

	tiffHeaderSize = 8
	ifdEntrySize   = 12

	tiffShort = 3
	tiffLong  = 4

	jpegSOI  = 0xd8
	jpegEOI  = 0xd9
	jpegSOS  = 0xda
	jpegAPP1 = 0xe1
)

var (
	errNoExif        = errors.New("no EXIF container found")
	errMalformedTiff = errors.New("malformed EXIF structure")

	exifHeader = []byte("Exif\x00\x00")

	// Size in bytes of a single value of each TIFF field type
	tiffTypeSizes = map[uint16]uint64{1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8}

	// Exif, GPS and Interoperability sub-IFD pointers
	subIFDPointers = map[uint16]bool{0x8769: true, 0x8825: true, 0xa005: true}
)

// readExifTiff returns the TIFF structure carrying the EXIF data of a JPEG, a bare
// TIFF or a raw EXIF block. errNoExif is returned when the data is none of these, or
// when a JPEG has no EXIF segment.
func readExifTiff(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errNoExif
	}

	switch {
	case string(header) == "II*\x00" || string(header) == "MM\x00*":
		return readBounded(io.MultiReader(bytes.NewReader(header), r))
	case string(header) == "Exif":
		data, err := readBounded(io.MultiReader(bytes.NewReader(header), r))
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(data, exifHeader) {
			return nil, errNoExif
		}

		return data[len(exifHeader):], nil
	case header[0] == 0xff && header[1] == jpegSOI:
		return jpegExifSegment(bufio.NewReader(io.MultiReader(bytes.NewReader(header[2:]), r)))
	default:
		return nil, errNoExif
	}
}

func readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTiffSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxTiffSize {
		return nil, fmt.Errorf("%w: TIFF data exceeds %d bytes", errMalformedTiff, maxTiffSize)
	}

	return data, nil
}

// jpegExifSegment walks the JPEG markers following the SOI and returns the payload
// of the first APP1 segment holding EXIF data, without the EXIF header.
func jpegExifSegment(r *bufio.Reader) ([]byte, error) {
	for {
		if b, err := r.ReadByte(); err != nil || b != 0xff {
			return nil, errNoExif
		}

		marker, err := r.ReadByte()
		for err == nil && marker == 0xff {
			marker, err = r.ReadByte()
		}
		if err != nil {
			return nil, errNoExif
		}

		switch {
		case marker == jpegSOS || marker == jpegEOI:
			return nil, errNoExif
		case marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			// Standalone markers carry no length
			continue
		}

		var length uint16
		if err := binary.Read(r, binary.BigEndian, &length); err != nil || length < 2 {
			return nil, errNoExif
		}

		segment := make([]byte, length-2)
		if _, err := io.ReadFull(r, segment); err != nil {
			if marker == jpegAPP1 {
				return nil, fmt.Errorf("%w: truncated APP1 segment", errMalformedTiff)
			}
			return nil, errNoExif
		}

		if marker == jpegAPP1 && bytes.HasPrefix(segment, exifHeader) {
			return segment[len(exifHeader):], nil
		}
	}
}

// validateTiff walks every IFD reachable from the TIFF header, following both the IFD
// chain and any sub-IFD pointers, and checks that each entry's values lie within the
// data. The decoder sizes its value slices from the declared counts, so a structure
// rejected here must never be handed to it.
func validateTiff(data []byte) error {
	if len(data) < tiffHeaderSize {
		return fmt.Errorf("%w: truncated TIFF header", errMalformedTiff)
	}

	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return fmt.Errorf("%w: unknown byte order %q", errMalformedTiff, data[:2])
	}
	if order.Uint16(data[2:]) != 42 {
		return fmt.Errorf("%w: missing TIFF marker", errMalformedTiff)
	}

	type pendingIFD struct {
		offset  uint32
		chained bool
	}

	pending := []pendingIFD{{offset: order.Uint32(data[4:]), chained: true}}
	visited := make(map[uint32]bool)
	var valueBytes uint64
	for len(pending) > 0 {
		ifd := pending[0]
		pending = pending[1:]
		if ifd.offset == 0 {
			continue
		}
		if visited[ifd.offset] {
			return fmt.Errorf("%w: IFD at offset %d is referenced more than once", errMalformedTiff, ifd.offset)
		}
		if len(visited) == maxIFDs {
			return fmt.Errorf("%w: more than %d IFDs", errMalformedTiff, maxIFDs)
		}
		visited[ifd.offset] = true

		next, children, size, err := validateIFD(data, order, ifd.offset)
		if err != nil {
			return err
		}

		// Tag values never share storage, so together they cannot exceed the data
		valueBytes += size
		if valueBytes > uint64(len(data)) {
			return fmt.Errorf("%w: tag values exceed the size of the data", errMalformedTiff)
		}

		for _, child := range children {
			pending = append(pending, pendingIFD{offset: child})
		}
		if ifd.chained {
			pending = append(pending, pendingIFD{offset: next, chained: true})
		}
	}

	return nil
}

// validateIFD checks the IFD at the offset given, returning the offset of the next IFD
// in the chain, the offsets of any sub-IFDs it points to, and the number of bytes its
// out-of-line values occupy.
func validateIFD(data []byte, order binary.ByteOrder, offset uint32) (uint32, []uint32, uint64, error) {
	size := uint64(len(data))
	start := uint64(offset)
	if start+2 > size {
		return 0, nil, 0, fmt.Errorf("%w: IFD offset %d is outside of the data", errMalformedTiff, offset)
	}

	entries := uint64(order.Uint16(data[start:]))
	end := start + 2 + entries*ifdEntrySize
	if end+4 > size {
		return 0, nil, 0, fmt.Errorf("%w: IFD at offset %d declares %d entries but is truncated", errMalformedTiff, offset, entries)
	}

	var (
		children   []uint32
		valueBytes uint64
	)
	for pos := start + 2; pos < end; pos += ifdEntrySize {
		entry := data[pos : pos+ifdEntrySize]
		tag, typ, count := order.Uint16(entry), order.Uint16(entry[2:]), order.Uint32(entry[4:])

		typeSize, ok := tiffTypeSizes[typ]
		if !ok {
			return 0, nil, 0, fmt.Errorf("%w: tag 0x%04x has unknown type %d", errMalformedTiff, tag, typ)
		}

		length := typeSize * uint64(count)
		value := entry[8:]
		if length > 4 {
			valueOffset := uint64(order.Uint32(entry[8:]))
			if valueOffset+length > size {
				return 0, nil, 0, fmt.Errorf("%w: tag 0x%04x declares %d values beyond the end of the data", errMalformedTiff, tag, count)
			}

			value = data[valueOffset : valueOffset+length]
			valueBytes += length
		}

		if subIFDPointers[tag] {
			child, err := subIFDOffset(order, tag, typ, count, value)
			if err != nil {
				return 0, nil, 0, err
			}

			children = append(children, child)
		}
	}

	return order.Uint32(data[end:]), children, valueBytes, nil
}

func subIFDOffset(order binary.ByteOrder, tag uint16, typ uint16, count uint32, value []byte) (uint32, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: sub-IFD pointer 0x%04x is empty", errMalformedTiff, tag)
	}

	var offset uint32
	switch typ {
	case tiffShort:
		offset = uint32(order.Uint16(value))
	case tiffLong:
		offset = order.Uint32(value)
	default:
		return 0, fmt.Errorf("%w: sub-IFD pointer 0x%04x has type %d", errMalformedTiff, tag, typ)
	}

	if offset < tiffHeaderSize {
		return 0, fmt.Errorf("%w: sub-IFD pointer 0x%04x points inside the TIFF header", errMalformedTiff, tag)
	}

	return offset, nil
}
