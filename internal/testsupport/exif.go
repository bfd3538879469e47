package testsupport

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TIFF tags and field types used by the fixture encoder.
const (
	tagDateTime       = 0x0132
	tagExifIFDPointer = 0x8769
	tagExposureBias   = 0x9204
	tagExposureMode   = 0xa402

	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeSRational = 10
)

// Rational is a signed EXIF rational value.
type Rational struct {
	Num int32
	Den int32
}

// EV encodes an exposure bias in tenths of a stop, the way most cameras do.
func EV(ev float64) Rational {
	return Rational{Num: int32(math.Round(ev * 10)), Den: 10}
}

// ImageMeta describes the EXIF block written by WriteImage.
type ImageMeta struct {
	Taken time.Time
	Bias  Rational
	Mode  uint16

	OmitTaken bool
	OmitBias  bool
	OmitMode  bool
}

// Bracketed returns metadata for an auto-bracketed frame.
func Bracketed(taken time.Time, ev float64) ImageMeta {
	return ImageMeta{Taken: taken, Bias: EV(ev), Mode: 2}
}

// WriteImage writes a minimal little-endian TIFF carrying meta to path.
func WriteImage(t testing.TB, path string, meta ImageMeta) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, EncodeTIFF(meta), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// EncodeTIFF renders meta as a standalone TIFF byte stream.
func EncodeTIFF(meta ImageMeta) []byte {
	var exifEntries []ifdEntry
	if !meta.OmitBias {
		value := make([]byte, 8)
		binary.LittleEndian.PutUint32(value[0:], uint32(meta.Bias.Num))
		binary.LittleEndian.PutUint32(value[4:], uint32(meta.Bias.Den))
		exifEntries = append(exifEntries, ifdEntry{tag: tagExposureBias, typ: typeSRational, count: 1, value: value})
	}
	if !meta.OmitMode {
		value := make([]byte, 2)
		binary.LittleEndian.PutUint16(value, meta.Mode)
		exifEntries = append(exifEntries, ifdEntry{tag: tagExposureMode, typ: typeShort, count: 1, value: value})
	}

	var rootEntries []ifdEntry
	if !meta.OmitTaken {
		stamp := append([]byte(meta.Taken.Format("2006:01:02 15:04:05")), 0)
		rootEntries = append(rootEntries, ifdEntry{tag: tagDateTime, typ: typeASCII, count: uint32(len(stamp)), value: stamp})
	}
	pointer := -1
	if len(exifEntries) > 0 {
		pointer = len(rootEntries)
		rootEntries = append(rootEntries, ifdEntry{tag: tagExifIFDPointer, typ: typeLong, count: 1, value: make([]byte, 4)})
	}

	const rootOffset = 8
	root := encodeIFD(rootEntries, rootOffset)
	if pointer >= 0 {
		binary.LittleEndian.PutUint32(rootEntries[pointer].value, uint32(rootOffset+len(root)))
		root = encodeIFD(rootEntries, rootOffset)
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rootOffset))
	buf.Write(root)
	if pointer >= 0 {
		buf.Write(encodeIFD(exifEntries, uint32(rootOffset+len(root))))
	}
	return buf.Bytes()
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

// encodeIFD lays out a directory at start followed by its out-of-line values.
func encodeIFD(entries []ifdEntry, start uint32) []byte {
	dataOffset := start + uint32(2+12*len(entries)+4)

	var dir, data bytes.Buffer
	_ = binary.Write(&dir, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, binary.LittleEndian, e.tag)
		_ = binary.Write(&dir, binary.LittleEndian, e.typ)
		_ = binary.Write(&dir, binary.LittleEndian, e.count)
		if len(e.value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.value)
			dir.Write(inline)
			continue
		}
		_ = binary.Write(&dir, binary.LittleEndian, dataOffset+uint32(data.Len()))
		data.Write(e.value)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, binary.LittleEndian, uint32(0))
	dir.Write(data.Bytes())
	return dir.Bytes()
}
