package protocol

import (
	"bytes"
	"maps"
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantStatus string
		wantMeta   map[string]string
		wantBody   string
		wantErr    bool
	}{
		{
			name: "ok response with metadata",
			input: "---\nstatus: ok\nmodified: 2025-02-14T10:30:00Z\netag: abc\n---\n" +
				"# Fruit\n\nSee [apple](Apple.md).\n",
			wantStatus: StatusOK,
			wantMeta:   map[string]string{"modified": "2025-02-14T10:30:00Z", "etag": "abc"},
			wantBody:   "# Fruit\n\nSee [apple](Apple.md).\n",
		},
		{
			name:       "not-found response",
			input:      "---\nstatus: not-found\n---\n# Not Found\n",
			wantStatus: StatusNotFound,
			wantMeta:   map[string]string{},
			wantBody:   "# Not Found\n",
		},
		{
			name:       "no frontmatter",
			input:      "# Just markdown\n",
			wantStatus: "",
			wantMeta:   map[string]string{},
			wantBody:   "# Just markdown\n",
		},
		{
			name:    "unclosed frontmatter",
			input:   "---\nstatus: ok\n# No closing\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(strings.NewReader(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", got.Status, tt.wantStatus)
			}
			if !maps.Equal(got.Metadata, tt.wantMeta) {
				t.Errorf("metadata: got %v, want %v", got.Metadata, tt.wantMeta)
			}
			if got.Body != tt.wantBody {
				t.Errorf("body: got %q, want %q", got.Body, tt.wantBody)
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{
		Status:   StatusOK,
		Metadata: map[string]string{"etag": "v1"},
		Body:     "# Apple\n",
	}

	var buf bytes.Buffer
	if _, err := resp.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := ParseResponse(&buf)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if got.Status != resp.Status || got.Body != resp.Body || !maps.Equal(got.Metadata, resp.Metadata) {
		t.Errorf("got %+v, want %+v", got, resp)
	}
}
