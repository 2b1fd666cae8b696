package imagewriter

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/voxelforge/tracecore/framebuffer"
)

// WritePFM writes sb as a Portable FloatMap: header `PF\n<w> <h>\n-1.0\n`
// then w*h RGB triples of f32 in bottom-up row order. The negative scale
// factor in the header marks the data as little-endian.
func WritePFM(path string, sb *framebuffer.SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagewriter: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "PF\n%d %d\n-1.0\n", sb.Width, sb.Height); err != nil {
		return fmt.Errorf("imagewriter: write %s header: %w", path, err)
	}
	for y := sb.Height - 1; y >= 0; y-- {
		for x := 0; x < sb.Width; x++ {
			c, _ := sb.Mean(x, y)
			for _, v := range [3]float32{c.R, c.G, c.B} {
				if err := binary.Write(w, binary.LittleEndian, v); err != nil {
					return fmt.Errorf("imagewriter: write %s body: %w", path, err)
				}
			}
		}
	}
	return w.Flush()
}
