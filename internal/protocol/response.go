package protocol

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// Response is a Mark Protocol response.
type Response struct {
	Status   string
	Metadata map[string]string
	Body     string
}

// ParseResponse reads a whole response from r.
func ParseResponse(r io.Reader) (Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	content := string(data)
	resp := Response{Metadata: make(map[string]string)}

	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		resp.Body = content
		return resp, nil
	}
	fm, body, ok := strings.Cut(rest, "\n---\n")
	if !ok {
		return Response{}, fmt.Errorf("malformed frontmatter: missing closing ---")
	}
	resp.Body = body

	// Decode into strings so timestamps and numbers stay verbatim.
	var raw map[string]string
	if err := yaml.Unmarshal([]byte(fm), &raw); err != nil {
		return Response{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	for k, v := range raw {
		if k == "status" {
			resp.Status = v
			continue
		}
		resp.Metadata[k] = v
	}
	return resp, nil
}

// WriteTo writes the response to w in wire format.
func (resp Response) WriteTo(w io.Writer) (int64, error) {
	fm := make(map[string]string, len(resp.Metadata)+1)
	maps.Copy(fm, resp.Metadata)
	fm["status"] = resp.Status

	meta, err := yaml.Marshal(fm)
	if err != nil {
		return 0, fmt.Errorf("encoding frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n")
	buf.WriteString(resp.Body)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}
