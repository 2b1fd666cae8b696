// Package imagewriter encodes a finished sample buffer into three output
// formats: 8-bit PNG (with optional alpha and optional XMP/GPano metadata),
// 32-bit-float TIFF, and PFM. PNG encoding uses the standard `image`/
// `image/png` packages; TIFF-32 and PFM have no standard-library encoder
// and are hand-built.
package imagewriter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/voxelforge/tracecore/camera"
	"github.com/voxelforge/tracecore/framebuffer"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/tonemap"
)

// PNGOptions controls PNG output: 8-bit sRGB, optionally with an alpha
// channel and a GPano XMP iTXt chunk when the camera is panoramic at
// ~180 degrees FoV.
type PNGOptions struct {
	Operator tonemap.Operator
	Gamma    float32
	// WithAlpha computes per-pixel alpha from sky-visibility supersampling;
	// Scene/Camera must be non-nil when set.
	WithAlpha bool
	Scene     *scene.Scene
	Camera    *camera.Camera
	// Panoramic embeds a GPano XMP iTXt chunk, for ~180-degree panoramic
	// cameras.
	Panoramic bool
}

// WritePNG tonemaps sb and writes it as an 8-bit PNG to path.
func WritePNG(path string, sb *framebuffer.SampleBuffer, opt PNGOptions) error {
	img := toNRGBA(sb, opt)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("imagewriter: encode PNG: %w", err)
	}
	data := buf.Bytes()
	if opt.Panoramic {
		data = insertGPanoChunk(data)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("imagewriter: write %s: %w", path, err)
	}
	return nil
}

func toNRGBA(sb *framebuffer.SampleBuffer, opt PNGOptions) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, sb.Width, sb.Height))
	dither := tonemap.NewDitherSource(1)
	for y := 0; y < sb.Height; y++ {
		for x := 0; x < sb.Width; x++ {
			mean, _ := sb.Mean(x, y)
			ldr := tonemap.Apply(opt.Operator, mean, opt.Gamma)
			a := uint8(255)
			if opt.WithAlpha && opt.Scene != nil && opt.Camera != nil {
				alpha := tonemap.SkyAlpha(opt.Scene, opt.Camera, x, y, sb.Width, sb.Height)
				a = uint8(clampByte(alpha*255 + dither.Float32() - 0.5))
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(clampByte(ldr.R*255 + dither.Float32() - 0.5)),
				G: uint8(clampByte(ldr.G*255 + dither.Float32() - 0.5)),
				B: uint8(clampByte(ldr.B*255 + dither.Float32() - 0.5)),
				A: a,
			})
		}
	}
	return img
}

func clampByte(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// gpanoXMP is the minimal GPano XMP packet marking a ~180-degree panoramic
// image.
const gpanoXMP = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` +
	`<x:xmpmeta xmlns:x="adobe:ns:meta/">` +
	`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
	`<rdf:Description xmlns:GPano="http://ns.google.com/photos/1.0/panorama/" ` +
	`GPano:ProjectionType="equirectangular" GPano:UsePanoramaViewer="True"/>` +
	`</rdf:RDF></x:xmpmeta><?xpacket end="w"?>`

// insertGPanoChunk splices an iTXt chunk carrying the GPano XMP packet into
// an already-encoded PNG, just before the IEND chunk. PNG's chunked format
// makes this a pure byte-surgery operation; the standard library has no
// API for writing auxiliary chunks, so this is hand-rolled per the PNG
// spec (length, type, data, CRC32 of type+data).
func insertGPanoChunk(src []byte) []byte {
	iend := findIENDOffset(src)
	if iend < 0 {
		return src
	}

	var chunkData bytes.Buffer
	chunkData.WriteString("XML:com.adobe.xmp\x00")
	chunkData.WriteString(gpanoXMP)

	var chunk bytes.Buffer
	binary.Write(&chunk, binary.BigEndian, uint32(chunkData.Len()))
	chunk.WriteString("iTXt")
	chunk.Write(chunkData.Bytes())
	crc := crc32.NewIEEE()
	crc.Write([]byte("iTXt"))
	crc.Write(chunkData.Bytes())
	binary.Write(&chunk, binary.BigEndian, crc.Sum32())

	out := make([]byte, 0, len(src)+chunk.Len())
	out = append(out, src[:iend]...)
	out = append(out, chunk.Bytes()...)
	out = append(out, src[iend:]...)
	return out
}

// pngSignatureLen is the fixed 8-byte PNG signature findIENDOffset skips
// over before scanning chunks.
const pngSignatureLen = 8

// findIENDOffset scans a PNG byte stream for the start of its IEND chunk.
func findIENDOffset(data []byte) int {
	i := pngSignatureLen
	for i+8 <= len(data) {
		length := binary.BigEndian.Uint32(data[i : i+4])
		typ := string(data[i+4 : i+8])
		if typ == "IEND" {
			return i
		}
		i += 8 + int(length) + 4 // length + type + data + CRC
	}
	return -1
}
