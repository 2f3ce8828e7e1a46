package helpers

import (
	"bytes"
	"encoding/binary"
)

const (
	tiffASCII    = 2
	tiffLong     = 4
	tiffRational = 5

	tagMake          = 0x010f
	tagGPSPointer    = 0x8825
	tagGPSLatRef     = 0x0001
	tagGPSLat        = 0x0002
	tagGPSLonRef     = 0x0003
	tagGPSLon        = 0x0004
	tagGPSAltitude   = 0x0006
	ifdEntrySize     = 12
	ifdHeaderSize    = 2
	ifdNextPtrSize   = 4
	tiffHeaderLength = 8
)

type (
	ifdEntry struct {
		tag     uint16
		typ     uint16
		count   uint32
		payload []byte
	}

	// GPSFixture describes the GPS IFD to embed in a synthetic photo. Each
	// rational is a {numerator, denominator} pair. LatCount, when non-zero,
	// replaces the number of latitude rationals declared by the IFD entry
	// without changing the data written.
	GPSFixture struct {
		Lat, Lon       [3][2]uint32
		LatRef, LonRef string
		Alt            *[2]uint32
		LatCount       uint32
	}
)

func rationals(values ...[2]uint32) []byte {
	buf := &bytes.Buffer{}
	for _, v := range values {
		_ = binary.Write(buf, binary.LittleEndian, v[0])
		_ = binary.Write(buf, binary.LittleEndian, v[1])
	}
	return buf.Bytes()
}

// encodeIFD writes a single IFD at the offset given, with any payloads too large to be stored
// inline appended directly after it. The IFD and its data are returned.
func encodeIFD(offset uint32, entries []ifdEntry) []byte {
	dataOffset := offset + ifdHeaderSize + uint32(len(entries))*ifdEntrySize + ifdNextPtrSize
	ifd, data := &bytes.Buffer{}, &bytes.Buffer{}

	_ = binary.Write(ifd, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(ifd, binary.LittleEndian, e.tag)
		_ = binary.Write(ifd, binary.LittleEndian, e.typ)
		_ = binary.Write(ifd, binary.LittleEndian, e.count)
		if len(e.payload) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.payload)
			ifd.Write(inline)
		} else {
			_ = binary.Write(ifd, binary.LittleEndian, dataOffset+uint32(data.Len()))
			data.Write(e.payload)
		}
	}
	_ = binary.Write(ifd, binary.LittleEndian, uint32(0))

	return append(ifd.Bytes(), data.Bytes()...)
}

// BuildTiff produces a little-endian TIFF structure containing an IFD0 and, if
// a fixture is provided, a GPS sub-IFD.
func BuildTiff(gps *GPSFixture) []byte {
	out := []byte{'I', 'I', 0x2a, 0x00, tiffHeaderLength, 0, 0, 0}
	if gps == nil {
		return append(out, encodeIFD(tiffHeaderLength, []ifdEntry{{tagMake, tiffASCII, 4, []byte("DJI\x00")}})...)
	}

	ifd0Size := uint32(ifdHeaderSize + ifdEntrySize + ifdNextPtrSize)
	gpsOffset := tiffHeaderLength + ifd0Size
	pointer := make([]byte, 4)
	binary.LittleEndian.PutUint32(pointer, gpsOffset)
	out = append(out, encodeIFD(tiffHeaderLength, []ifdEntry{{tagGPSPointer, tiffLong, 1, pointer}})...)

	latCount := uint32(3)
	if gps.LatCount != 0 {
		latCount = gps.LatCount
	}

	entries := []ifdEntry{
		{tagGPSLatRef, tiffASCII, 2, []byte(gps.LatRef + "\x00")},
		{tagGPSLat, tiffRational, latCount, rationals(gps.Lat[0], gps.Lat[1], gps.Lat[2])},
		{tagGPSLonRef, tiffASCII, 2, []byte(gps.LonRef + "\x00")},
		{tagGPSLon, tiffRational, 3, rationals(gps.Lon[0], gps.Lon[1], gps.Lon[2])},
	}
	if gps.Alt != nil {
		entries = append(entries, ifdEntry{tagGPSAltitude, tiffRational, 1, rationals(*gps.Alt)})
	}

	return append(out, encodeIFD(gpsOffset, entries)...)
}

// WrapJPEG embeds the TIFF structure in an APP1 segment, as cameras do.
func WrapJPEG(tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	out := []byte{0xff, 0xd8, 0xff, 0xe1}
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, 0xff, 0xd9)
}

// GeotaggedJPEG returns a minimal JPEG located at the whole-degree
// position given.
func GeotaggedJPEG(latDegrees uint32, latRef string, lonDegrees uint32, lonRef string) []byte {
	return WrapJPEG(BuildTiff(&GPSFixture{
		Lat:    [3][2]uint32{{latDegrees, 1}, {0, 1}, {0, 1}},
		LatRef: latRef,
		Lon:    [3][2]uint32{{lonDegrees, 1}, {0, 1}, {0, 1}},
		LonRef: lonRef,
	}))
}

// UntaggedJPEG returns a JPEG carrying EXIF data but no GPS IFD.
func UntaggedJPEG() []byte {
	return WrapJPEG(BuildTiff(nil))
}
