package converter

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/nconklindev/csvmaker/internal/types"
)

// widthListRegex matches positive whole numbers separated by commas, spaces allowed.
var widthListRegex = regexp.MustCompile(`^\s*[1-9]\d*(?:\s*,\s*[1-9]\d*)*\s*$`)

// LayoutHeaderLines is the number of lines preceding field definitions in a layout file.
const LayoutHeaderLines = 8

// ParseFieldWidths parses a list such as "15, 31,24".
func ParseFieldWidths(text string) (types.FieldWidths, error) {
	if !widthListRegex.MatchString(text) {
		return nil, errors.WithHint(errors.Wrapf(ErrInvalidWidths, "%q", text),
			"enter field lengths separated by commas (e.g. 15,31,24)")
	}

	parts := strings.Split(text, ",")
	widths := make(types.FieldWidths, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidWidths, "%q", p)
		}
		widths = append(widths, n)
	}
	return widths, nil
}

// ParseLayoutFile reads field widths from a layout file: after the header
// lines, each non-blank line lists a field whose second column is its width.
func ParseLayoutFile(r io.Reader) (types.FieldWidths, error) {
	sc := bufio.NewScanner(r)
	var widths types.FieldWidths
	line := 0
	for sc.Scan() {
		line++
		if line <= LayoutHeaderLines {
			continue
		}
		cols := strings.Fields(sc.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < 2 {
			return nil, errors.Newf("layout line %d: missing field width", line)
		}
		n, err := strconv.Atoi(cols[1])
		if err != nil || n <= 0 {
			return nil, errors.Wrapf(ErrInvalidWidths, "layout line %d: %q", line, cols[1])
		}
		widths = append(widths, n)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read layout file")
	}
	if len(widths) == 0 {
		return nil, errors.Wrap(ErrInvalidWidths, "layout file defines no fields")
	}
	return widths, nil
}

// ParseDelimiter accepts a single character or one of the names tab, pipe,
// semicolon, comma and space.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	case "space":
		return ' ', nil
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.Newf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if err := checkDelimiter(r); err != nil {
		return 0, err
	}
	return r, nil
}

// SuspiciousDelimiter reports whether r is a letter or digit, which is
// almost always a mistake.
func SuspiciousDelimiter(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
