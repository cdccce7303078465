// Package encoding turns report exports of unknown charset into UTF-8 text.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much input is inspected before choosing a decoder.
const sniffSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader detects the encoding of the input and returns a reader
// that decodes the content to UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252, which is what the bank portals export
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(head, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, nil
	}

	enc := detect(head, len(head) == sniffSize)
	if enc == nil {
		return br, nil
	}

	return transform.NewReader(br, enc.NewDecoder()), nil
}

// detect picks a decoder for head, or nil when head is already UTF-8.
// truncated means head stops at the sniff window rather than at EOF.
func detect(head []byte, truncated bool) encoding.Encoding {
	switch {
	case bytes.HasPrefix(head, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(head, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case utf8.Valid(head), truncated && validUTF8Prefix(head):
		return nil
	}

	result, err := chardet.NewTextDetector().DetectBest(head)
	if err == nil {
		switch result.Charset {
		case "ISO-8859-1", "windows-1252":
			return charmap.Windows1252
		case "ISO-8859-9":
			return charmap.ISO8859_9
		}
	}

	return charmap.Windows1252
}

// validUTF8Prefix tolerates a multi-byte sequence cut by the sniff window.
func validUTF8Prefix(b []byte) bool {
	for cut := 1; cut < utf8.UTFMax && cut < len(b); cut++ {
		if utf8.Valid(b[:len(b)-cut]) {
			return !utf8.FullRune(b[len(b)-cut:])
		}
	}

	return false
}

// ReadText decodes the whole input into a UTF-8 string. Detection runs over
// every byte, so a report whose first sniffSize bytes are plain ASCII is
// still decoded when accented text shows up later.
func ReadText(r io.Reader) (string, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	if bytes.HasPrefix(all, bomUTF8) {
		return string(all[len(bomUTF8):]), nil
	}

	enc := detect(all, false)
	if enc == nil {
		return string(all), nil
	}

	text, err := enc.NewDecoder().Bytes(all)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}

	return string(text), nil
}
