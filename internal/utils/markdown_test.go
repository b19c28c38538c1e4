package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script> world"))
	if strings.Contains(out, "<script") {
		t.Fatalf("script tag survived sanitizing: %q", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
		t.Fatalf("text content lost: %q", out)
	}
}

func TestRenderMarkdownKeepsLinks(t *testing.T) {
	out := string(RenderMarkdown("[docs](https://example.com/docs)"))
	if !strings.Contains(out, `href="https://example.com/docs"`) {
		t.Fatalf("link lost: %q", out)
	}
}

func TestRenderMarkdownImagesGetLazyLoading(t *testing.T) {
	out := string(RenderMarkdown("![pic](https://example.com/pic.png)"))
	if !strings.Contains(out, `loading="lazy"`) {
		t.Fatalf("missing loading attribute: %q", out)
	}
	if !strings.Contains(out, `referrerpolicy="no-referrer"`) {
		t.Fatalf("missing referrerpolicy attribute: %q", out)
	}
}
