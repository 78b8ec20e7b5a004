package relay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FramePrefix marks a text delta frame on the wire.
const FramePrefix = "0:"

// EncodeFrame renders one fragment as `0:<json string>\n`.
func EncodeFrame(fragment string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(FramePrefix)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode terminates the value with the newline that ends the frame.
	if err := enc.Encode(fragment); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseFrames decodes a framed body back into its fragments, in order.
func ParseFrames(r io.Reader) ([]string, error) {
	var fragments []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		payload, ok := strings.CutPrefix(line, FramePrefix)
		if !ok {
			return fragments, fmt.Errorf("unexpected frame %q", line)
		}
		var fragment string
		if err := json.Unmarshal([]byte(payload), &fragment); err != nil {
			return fragments, fmt.Errorf("malformed frame %q: %w", line, err)
		}
		fragments = append(fragments, fragment)
	}
	return fragments, scanner.Err()
}
