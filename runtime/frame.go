package runtime

import (
	"bytes"
	"encoding/json"
)

// EncodeFrame serializes a payload as a single server-sent event frame:
// "data: <JSON>\n\n". The body is compacted so the JSON never spans
// multiple lines, which would break SSE framing on the wire.
func EncodeFrame(payload json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("data: ")
	if err := json.Compact(&buf, payload); err != nil {
		return nil, err
	}
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
