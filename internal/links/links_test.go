package links

import (
	"slices"
	"testing"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTitle string
		wantDests []string
	}{
		{
			name:      "title and links",
			body:      "# Fine art\n\nSee [still life](Still_life.md) and [fruit](/Fruit.md).\n",
			wantTitle: "Fine art",
			wantDests: []string{"Still_life.md", "/Fruit.md"},
		},
		{
			name:      "fragment links skipped",
			body:      "# Fruit\n\n[Cultivars](#cultivars), [Apple](Apple.md#history)\n",
			wantTitle: "Fruit",
			wantDests: []string{"Apple.md#history"},
		},
		{
			name:      "lists and absolute urls",
			body:      "- [Pear](Pear.md)\n- [Elsewhere](mark://other.example/Plum.md)\n",
			wantTitle: "",
			wantDests: []string{"Pear.md", "mark://other.example/Plum.md"},
		},
		{
			name:      "title is the first level-1 heading",
			body:      "## Overview\n\n# Orchard\n\n# Later\n",
			wantTitle: "Orchard",
		},
		{
			name:      "inline markup in heading",
			body:      "# *Citrus* fruits\n",
			wantTitle: "Citrus fruits",
		},
		{
			name: "empty",
			body: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, dests := Markdown([]byte(tt.body))
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if !slices.Equal(dests, tt.wantDests) {
				t.Errorf("dests = %v, want %v", dests, tt.wantDests)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	const base = "mark://127.0.0.1:6309/Fine_art.md"

	tests := []struct {
		base string
		dest string
		want string
	}{
		{base, "Fruit.md", "mark://127.0.0.1:6309/Fruit.md"},
		{base, "/Fruit.md", "mark://127.0.0.1:6309/Fruit.md"},
		{"mark://127.0.0.1:6309/art/Painting.md", "../Fruit.md", "mark://127.0.0.1:6309/Fruit.md"},
		{base, "mark://other.example/Plum.md", "mark://other.example/Plum.md"},
		{"", "Fruit.md", "Fruit.md"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.base, tt.dest); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.dest, got, tt.want)
		}
	}
}

func TestPageName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "plain",
			body: `<script>RLCONF={"wgCanonicalNamespace":"","wgPageName":"Fine_art","wgTitle":"Fine art"};</script>`,
			want: "Fine_art",
		},
		{
			name: "unicode escape",
			body: `"wgPageName":"Caf\u00e9"`,
			want: "Café",
		},
		{
			name: "escaped quote",
			body: `"wgPageName":"The \"Band\"","wgTitle":"x"`,
			want: `The "Band"`,
		},
		{
			name: "missing marker",
			body: `<html><head><title>Fruit</title></head></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageName([]byte(tt.body)); got != tt.want {
				t.Errorf("PageName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnchors(t *testing.T) {
	body := `<html><body>
<p>See <a href="/wiki/Fruit">fruit</a> and <A HREF="/wiki/Still_life">still life</A>.</p>
<a name="anchor-only">no href</a>
<a class="x" href="/wiki/Tom&amp;Jerry">entities</a>
</body></html>`

	got := Anchors([]byte(body))
	want := []string{"/wiki/Fruit", "/wiki/Still_life", "/wiki/Tom&Jerry"}
	if !slices.Equal(got, want) {
		t.Errorf("Anchors() = %v, want %v", got, want)
	}
}

func TestContentLinks(t *testing.T) {
	hrefs := []string{
		"/wiki/Fruit",
		"/wiki/Talk:Fruit",
		"/wiki/Special:Random",
		"https://example.com/wiki/Elsewhere",
		"/w/index.php?title=Fruit&action=edit",
		"/wiki/Apple#Cultivars",
		"/wiki/Apple",
		"/wiki/Caf%C3%A9",
		"/wiki/Category%3AFruits",
		"/wiki/",
		"#cite_note-1",
	}

	got := ContentLinks(hrefs, "/wiki/")
	want := []string{"Fruit", "Apple", "Café"}
	if !slices.Equal(got, want) {
		t.Errorf("ContentLinks() = %v, want %v", got, want)
	}
}
