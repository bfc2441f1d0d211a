package protocol

import (
	"bytes"
	"maps"
	"strings"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
		wantMeta map[string]string
		wantErr  bool
	}{
		{
			name:     "basic fetch",
			input:    "FETCH /index.md\n",
			wantPath: "/index.md",
			wantMeta: map[string]string{},
		},
		{
			name:     "no trailing newline",
			input:    "FETCH /Fruit.md",
			wantPath: "/Fruit.md",
			wantMeta: map[string]string{},
		},
		{
			name:     "with metadata",
			input:    "FETCH /Fruit.md\n---\nif-none-match: abc123\n---\n",
			wantPath: "/Fruit.md",
			wantMeta: map[string]string{"if-none-match": "abc123"},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing path",
			input:   "FETCH\n",
			wantErr: true,
		},
		{
			name:    "relative path",
			input:   "FETCH index.md\n",
			wantErr: true,
		},
		{
			name:    "unclosed metadata",
			input:   "FETCH /a.md\n---\nkey: value\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Verb != VerbFetch {
				t.Errorf("verb: got %q, want %q", got.Verb, VerbFetch)
			}
			if got.Path != tt.wantPath {
				t.Errorf("path: got %q, want %q", got.Path, tt.wantPath)
			}
			if !maps.Equal(got.Metadata, tt.wantMeta) {
				t.Errorf("metadata: got %v, want %v", got.Metadata, tt.wantMeta)
			}
		})
	}
}

func TestParseRequestLineTooLong(t *testing.T) {
	input := "FETCH /" + strings.Repeat("a", MaxRequestLineLength+10) + "\n"
	if _, err := ParseRequest(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for oversized request line")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Verb:     VerbFetch,
		Path:     "/Still_life.md",
		Metadata: map[string]string{"if-modified-since": "2025-02-14T10:30:00Z"},
	}

	var buf bytes.Buffer
	if _, err := req.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "FETCH /Still_life.md\n---\n") {
		t.Errorf("unexpected wire format: %q", buf.String())
	}

	got, err := ParseRequest(&buf)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if got.Path != req.Path || !maps.Equal(got.Metadata, req.Metadata) {
		t.Errorf("got %+v, want %+v", got, req)
	}
}

func TestRequestWriteToWithoutMetadata(t *testing.T) {
	var buf bytes.Buffer
	if _, err := (Request{Verb: VerbFetch, Path: "/a.md"}).WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if got := buf.String(); got != "FETCH /a.md\n" {
		t.Errorf("got %q, want %q", got, "FETCH /a.md\n")
	}
}
