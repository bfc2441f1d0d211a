package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxRequestLineLength is the maximum allowed length for a request line.
const MaxRequestLineLength = 4096

// Request is a Mark Protocol request.
type Request struct {
	Verb     string
	Path     string
	Metadata map[string]string
}

// WriteTo writes the request to w in wire format.
func (req Request) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s\n", req.Verb, req.Path)

	if len(req.Metadata) > 0 {
		meta, err := yaml.Marshal(req.Metadata)
		if err != nil {
			return 0, fmt.Errorf("encoding request metadata: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n")
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ParseRequest reads a request from r.
func ParseRequest(r io.Reader) (Request, error) {
	br := bufio.NewReaderSize(r, MaxRequestLineLength)

	line, err := readLine(br)
	if err != nil {
		return Request{}, fmt.Errorf("reading request: %w", err)
	}
	verb, path, ok := strings.Cut(line, " ")
	if !ok || verb == "" {
		return Request{}, fmt.Errorf("malformed request: %q", line)
	}
	if !strings.HasPrefix(path, "/") {
		return Request{}, fmt.Errorf("invalid path: %q", path)
	}

	req := Request{Verb: verb, Path: path, Metadata: make(map[string]string)}

	if next, err := readLine(br); err != nil || next != "---" {
		return req, nil
	}
	var fm strings.Builder
	for {
		l, err := readLine(br)
		if err != nil {
			return Request{}, fmt.Errorf("reading request metadata: %w", err)
		}
		if l == "---" {
			break
		}
		fm.WriteString(l)
		fm.WriteByte('\n')
	}
	if err := yaml.Unmarshal([]byte(fm.String()), &req.Metadata); err != nil {
		return Request{}, fmt.Errorf("parsing request metadata: %w", err)
	}
	return req, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	if len(line) > MaxRequestLineLength {
		return "", fmt.Errorf("line exceeds %d bytes", MaxRequestLineLength)
	}
	return strings.TrimSuffix(line, "\n"), nil
}
