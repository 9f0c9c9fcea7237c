package rrdata

import (
	"github.com/haukened/rr-doh/internal/dns/domain"
)

// ReadText reads one length-prefixed character-string as UTF-8 text.
// TXT data may hold several consecutive strings; only the first one is read
// and the cursor is left right after it.
func (r *Reader) ReadText() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	if err := r.need("character-string", int(n)); err != nil {
		return "", err
	}
	text := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return text, nil
}

// EncodeText encodes a single character-string.
func EncodeText(s string) ([]byte, error) {
	if len(s) > 255 {
		return nil, malformed("TXT segment too long: %d bytes", len(s))
	}
	return append([]byte{byte(len(s))}, s...), nil
}

func decodeTXTData(r *Reader) (domain.RData, error) {
	text, err := r.ReadText()
	if err != nil {
		return domain.RData{}, err
	}
	return domain.RData{Kind: domain.RDataText, Text: text}, nil
}
