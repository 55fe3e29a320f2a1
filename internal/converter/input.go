package converter

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeInput wraps r so it yields UTF-8 text. A byte order mark, when
// present, wins over the named encoding and is removed. Invalid UTF-8 in a
// UTF-8 input is replaced with U+FFFD.
func decodeInput(r io.Reader, name string) (io.Reader, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16", "utf16", "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.WithHint(errors.Wrapf(err, "unknown encoding %q", name),
			"use a WHATWG encoding label such as utf-8, windows-1252 or shift_jis")
	}
	return enc, nil
}
