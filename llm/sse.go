package llm

import (
	"bytes"
	"strings"
)

// sentinel payload terminating an upstream event stream.
const doneSentinel = "[DONE]"

// FrameDecoder is a stateful incremental decoder for `data:`-framed event
// streams. The transport delivers bytes in arbitrary-sized chunks that need
// not align with line boundaries; the decoder carries the partial tail
// across feeds and drains only complete frames.
type FrameDecoder struct {
	buf []byte
}

// NewFrameDecoder creates an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends p and returns the payloads of every frame completed by it,
// in arrival order. Blank lines and non-data lines are skipped.
func (d *FrameDecoder) Feed(p []byte) []string {
	d.buf = append(d.buf, p...)

	var frames []string
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return frames
		}
		line := strings.TrimSpace(string(d.buf[:idx]))
		d.buf = d.buf[idx+1:]

		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		frames = append(frames, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
	}
}

// Pending reports whether an incomplete frame is buffered.
func (d *FrameDecoder) Pending() bool {
	return len(bytes.TrimSpace(d.buf)) > 0
}
