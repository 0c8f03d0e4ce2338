package io

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/unicode/norm"

	"github.com/a01094554781-oss/kfestival/internal/errors"
)

// Detected source encodings.
const (
	EncodingUTF8  = "UTF-8"
	EncodingCP949 = "CP949"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns the UTF-8 text of data and the encoding it was read
// as. UTF-8 wins when the bytes are valid; otherwise the legacy Korean
// codepage is tried and rejected if any byte sequence fails to map.
func decodeText(source string, data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", errors.NewDecodeError(source, "input is neither UTF-8 nor CP949")
	}
	// The decoder substitutes U+FFFD for unmappable input instead of failing.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", errors.NewDecodeError(source, "input is neither UTF-8 nor CP949")
	}
	return string(decoded), EncodingCP949, nil
}

// normalizeCell applies NFC so decomposed Hangul from some exporters
// compares equal to the precomposed form used by the reference tables.
func normalizeCell(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
