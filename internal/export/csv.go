package export

import (
	"strings"
)

// Serialize joins the header row and the already-escaped data rows into CSV
// text: fields separated by commas, rows by "\n", no trailing newline.
// A row whose width differs from the header is an internal contract
// violation and aborts the whole serialization.
func Serialize(fixedHeaders, dynamicHeaders []string, rows [][]string) (string, error) {
	width := len(fixedHeaders) + len(dynamicHeaders)

	header := make([]string, 0, width)
	for _, h := range fixedHeaders {
		header = append(header, EscapeField(h))
	}
	for _, h := range dynamicHeaders {
		header = append(header, EscapeField(h))
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ","))
	for i, row := range rows {
		if len(row) != width {
			return "", contractViolation(i, len(row), width)
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}
	return b.String(), nil
}
