// Package pricelist reads supplier price lists from CSV files or PDF documents.
package pricelist

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"mealminder/internal/pricing"
	"mealminder/models"
)

// ErrNoCatalogKey is returned for names without a single letter or digit; such
// names cannot be matched against other suppliers' products.
var ErrNoCatalogKey = errors.New("name must contain a letter or digit")

// ErrEmpty is returned when a price list yields no entries.
var ErrEmpty = errors.New("price list contains no entries")

// Entry is one product line of a price list.
type Entry struct {
	Line     int
	Name     string
	Price    int64 // cents
	Stock    *int
	Category string
	Unit     string
}

// LineError points at the offending line of a price list.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Parse picks the format from the file name, falling back to sniffing the PDF magic.
func Parse(name string, data []byte) ([]Entry, error) {
	if strings.EqualFold(filepath.Ext(name), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-")) {
		return ParsePDF(data)
	}
	return ParseCSV(bytes.NewReader(data))
}

var defaultColumns = []string{"name", "price", "stock", "category", "unit"}

// ParseCSV reads "name,price,stock,category,unit" rows. A header row naming the
// columns is optional and may reorder them.
func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	columns := defaultColumns
	start := 0
	if len(rows) > 0 && isHeader(rows[0]) {
		columns = make([]string, len(rows[0]))
		for i, col := range rows[0] {
			columns[i] = strings.ToLower(strings.TrimSpace(col))
		}
		start = 1
	}

	entries := make([]Entry, 0, len(rows))
	for idx := start; idx < len(rows); idx++ {
		record := map[string]string{}
		for i, value := range rows[idx] {
			if i < len(columns) {
				record[columns[i]] = strings.TrimSpace(value)
			}
		}
		if record["name"] == "" && record["price"] == "" {
			continue
		}
		entry, err := buildEntry(idx+1, record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

func isHeader(row []string) bool {
	for _, col := range row {
		if strings.EqualFold(strings.TrimSpace(col), "name") {
			return true
		}
	}
	return false
}

func buildEntry(line int, record map[string]string) (Entry, error) {
	entry := Entry{
		Line:     line,
		Name:     record["name"],
		Category: record["category"],
		Unit:     record["unit"],
	}
	if entry.Name == "" {
		return Entry{}, &LineError{Line: line, Err: errors.New("name is required")}
	}
	if models.CatalogKey(entry.Name) == "" {
		return Entry{}, &LineError{Line: line, Err: ErrNoCatalogKey}
	}

	price, err := pricing.ParseAmount(record["price"])
	if err != nil || price < 0 {
		return Entry{}, &LineError{Line: line, Err: fmt.Errorf("invalid price %q", record["price"])}
	}
	entry.Price = price

	if raw := record["stock"]; raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return Entry{}, &LineError{Line: line, Err: fmt.Errorf("invalid stock %q", raw)}
		}
		entry.Stock = &stock
	}
	return entry, nil
}

// textLine matches "<name> <price> [stock]" with an optional currency sign.
var textLine = regexp.MustCompile(`^(.+?)\s+[$€£]?(\d+(?:[.,]\d{1,2})?)(?:\s+(\d+))?$`)

// ParseText reads one product per line. Lines that do not end in a price, such as
// headings, are skipped.
func ParseText(text string) ([]Entry, error) {
	var entries []Entry
	for idx, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		m := textLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		record := map[string]string{"name": m[1], "price": m[2], "stock": m[3]}
		entry, err := buildEntry(idx+1, record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

// ParsePDF extracts the document text and reads it with ParseText.
func ParsePDF(data []byte) ([]Entry, error) {
	text, err := extractTextFromPDF(data)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return ParseText(text)
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, row := range groupRows(page.Content().Text) {
			builder.WriteString(row)
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

type textRow struct {
	y     float64
	texts []pdf.Text
}

// groupRows joins glyph runs sharing a baseline into lines, top of the page first.
// Runs separated by a visible gap get a space between them.
func groupRows(texts []pdf.Text) []string {
	const tolerance = 2.0

	var rows []*textRow
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		placed := false
		for _, row := range rows {
			if math.Abs(row.y-t.Y) < tolerance {
				row.texts = append(row.texts, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, &textRow{y: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.texts, func(i, j int) bool { return row.texts[i].X < row.texts[j].X })
		var b strings.Builder
		for i, t := range row.texts {
			if i > 0 {
				prev := row.texts[i-1]
				if t.X-(prev.X+prev.W) > t.FontSize*0.2 {
					b.WriteByte(' ')
				}
			}
			b.WriteString(t.S)
		}
		lines = append(lines, b.String())
	}
	return lines
}
