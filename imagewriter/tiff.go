package imagewriter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/voxelforge/tracecore/framebuffer"
)

// WriteTIFF32 writes sb as a 3-channel IEEE-754 32-bit float TIFF, linear
// radiance, little-endian tags. Go's standard library has no float-sample
// TIFF encoder (x/image/tiff only round-trips the
// 8/16-bit integer subset), so this hand-builds the minimal tag set a
// reader needs: a single strip holding the whole image, uncompressed,
// PlanarConfig=1 (chunky), SampleFormat=3 (IEEE float).
func WriteTIFF32(path string, sb *framebuffer.SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagewriter: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeTIFF32(w, sb); err != nil {
		return fmt.Errorf("imagewriter: write %s: %w", path, err)
	}
	return w.Flush()
}

type tiffTag struct {
	id, typ uint16
	count   uint32
	value   uint32 // value or, for out-of-line data, its offset
}

func writeTIFF32(w *bufio.Writer, sb *framebuffer.SampleBuffer) error {
	const (
		typeShort = 3
		typeLong  = 4
		littleEndianHeaderLen = 8
	)

	bo := binary.LittleEndian
	pixelCount := sb.Width * sb.Height
	strideBytes := pixelCount * 3 * 4 // 3 channels * 4 bytes/float

	// Tag values that don't fit in 4 bytes (the SampleFormat/BitsPerSample
	// arrays, and the pixel data itself) live after the IFD; compute their
	// offsets up front.
	ifdTagCount := 10
	ifdSize := 2 + ifdTagCount*12 + 4
	headerEnd := uint32(littleEndianHeaderLen)
	ifdOffset := headerEnd
	afterIFD := ifdOffset + uint32(ifdSize)

	bitsPerSampleOffset := afterIFD
	sampleFormatOffset := bitsPerSampleOffset + 3*2
	pixelDataOffset := sampleFormatOffset + 3*2

	tags := []tiffTag{
		{256, typeLong, 1, uint32(sb.Width)},           // ImageWidth
		{257, typeLong, 1, uint32(sb.Height)},           // ImageLength
		{258, typeShort, 3, bitsPerSampleOffset},        // BitsPerSample (array)
		{259, typeShort, 1, 1},                          // Compression = none
		{262, typeShort, 1, 2},                          // PhotometricInterpretation = RGB
		{273, typeLong, 1, pixelDataOffset},              // StripOffsets
		{277, typeShort, 1, 3},                           // SamplesPerPixel
		{278, typeLong, 1, uint32(sb.Height)},            // RowsPerStrip (one strip)
		{279, typeLong, 1, uint32(strideBytes)},          // StripByteCounts
		{339, typeShort, 3, sampleFormatOffset},          // SampleFormat (array): 3 = IEEE float
	}

	// Header: byte order, magic 42, offset to first IFD.
	if err := binary.Write(w, bo, [2]byte{'I', 'I'}); err != nil {
		return err
	}
	if err := binary.Write(w, bo, uint16(42)); err != nil {
		return err
	}
	if err := binary.Write(w, bo, ifdOffset); err != nil {
		return err
	}

	// IFD: tag count, tags (sorted by id per TIFF spec), next-IFD offset (0).
	if err := binary.Write(w, bo, uint16(len(tags))); err != nil {
		return err
	}
	for _, t := range tags {
		if err := binary.Write(w, bo, t.id); err != nil {
			return err
		}
		if err := binary.Write(w, bo, t.typ); err != nil {
			return err
		}
		if err := binary.Write(w, bo, t.count); err != nil {
			return err
		}
		if err := binary.Write(w, bo, t.value); err != nil {
			return err
		}
	}
	if err := binary.Write(w, bo, uint32(0)); err != nil {
		return err
	}

	// Out-of-line arrays, in the offset order promised above.
	for i := 0; i < 3; i++ {
		if err := binary.Write(w, bo, uint16(32)); err != nil { // 32 bits per float sample
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if err := binary.Write(w, bo, uint16(3)); err != nil { // SampleFormat = IEEE float
			return err
		}
	}

	// Pixel data: row-major, chunky RGB float32 triples.
	for y := 0; y < sb.Height; y++ {
		for x := 0; x < sb.Width; x++ {
			c, _ := sb.Mean(x, y)
			if err := binary.Write(w, bo, c.R); err != nil {
				return err
			}
			if err := binary.Write(w, bo, c.G); err != nil {
				return err
			}
			if err := binary.Write(w, bo, c.B); err != nil {
				return err
			}
		}
	}
	return nil
}
