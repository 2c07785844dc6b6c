package layout

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func TestPageEscapesTitleAndRendersBody(t *testing.T) {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<main>content</main>")
		return err
	})

	var buf bytes.Buffer
	if err := Page("Fish & <Chips>", body).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render page: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<title>Fish &amp; &lt;Chips&gt;</title>") {
		t.Fatalf("expected escaped title: %s", out)
	}
	if !strings.Contains(out, "<main>content</main>") {
		t.Fatalf("expected body content: %s", out)
	}
	if !strings.HasSuffix(out, "</body></html>") {
		t.Fatalf("expected closed document: %s", out)
	}
}

func TestPageWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	if err := Page("Empty", nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render page: %v", err)
	}
	if !strings.Contains(buf.String(), "<body></body>") {
		t.Fatalf("expected empty body: %s", buf.String())
	}
}
