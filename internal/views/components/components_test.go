package components

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestStatCardRendersValues(t *testing.T) {
	var buf bytes.Buffer
	if err := StatCard("Recipes", "12", "in the catalog").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render stat card: %v", err)
	}
	output := buf.String()
	for _, token := range []string{"Recipes", "12", "in the catalog"} {
		if !strings.Contains(output, token) {
			t.Fatalf("expected output to contain %q: %s", token, output)
		}
	}
}

func TestStatCardOmitsEmptyHint(t *testing.T) {
	var buf bytes.Buffer
	if err := StatCard("Suppliers", "3", "").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render stat card: %v", err)
	}
	if strings.Contains(buf.String(), `class="hint"`) {
		t.Fatalf("expected no hint paragraph: %s", buf.String())
	}
}

func TestTableEscapesCellsAndAlignsNumbers(t *testing.T) {
	rows := []Row{{Cells: []string{"<b>Eggs</b>", "2.89"}, Numeric: []bool{false, true}}}
	var buf bytes.Buffer
	if err := Table([]string{"Item", "Price"}, []bool{false, true}, rows).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "&lt;b&gt;Eggs&lt;/b&gt;") {
		t.Fatalf("expected escaped cell: %s", out)
	}
	if !strings.Contains(out, `<td class="num">2.89</td>`) {
		t.Fatalf("expected numeric cell to be right aligned: %s", out)
	}
	if !strings.Contains(out, `<th class="num">Price</th>`) {
		t.Fatalf("expected numeric header: %s", out)
	}
}
