package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header is the first line of every exported file.
var Header = []string{"url", "type", "name", "headline", "degree", "postUrl"}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// EscapeField renders one CSV field. Line breaks become spaces and the value
// is trimmed; it is quoted, with quotes doubled, only when it holds a comma
// or a quote.
func EscapeField(s string) string {
	s = strings.TrimSpace(newlines.Replace(s))
	if strings.ContainsAny(s, `",`) {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// WriteCSV writes the header and one line per row. Lines are separated by a
// single newline with none after the last row.
func WriteCSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return err
	}
	for i, r := range rows {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		fields := []string{r.URL, r.Type, r.Name, r.Headline, r.Degree, r.PostURL}
		for j, f := range fields {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(EscapeField(f)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("read csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("read csv: column %d is %q, want %q", i+1, head[i], h)
		}
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, Row{
			URL:      rec[0],
			Type:     rec[1],
			Name:     rec[2],
			Headline: rec[3],
			Degree:   rec[4],
			PostURL:  rec[5],
		})
	}
}
