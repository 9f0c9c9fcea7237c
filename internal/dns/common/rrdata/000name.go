package rrdata

import (
	"bytes"
	"strings"
)

const (
	maxLabelLength  = 63
	maxNameLength   = 255
	maxPointerHops  = 16
	pointerMask     = 0xC0
	pointerLowBits  = 0x3F
	compressionFlag = 0xC0
)

// ReadDomainName reads length-prefixed labels up to the zero-length root
// label and joins them with ".". The root name "[0]" reads as "".
// A "." or "\" inside a label is escaped with a backslash, so the dotted
// form encodes back to the same labels.
//
// A standalone reader rejects compression pointers. A message reader follows
// them into the enclosing message; the cursor then stops right after the
// first pointer.
func (r *Reader) ReadDomainName() (string, error) {
	var labels []string
	buf, pos := r.buf, r.pos
	jumped := false
	hops := 0
	length := 0

	for {
		if pos >= len(buf) {
			if jumped {
				return "", malformed("compression pointer leads past end of message")
			}
			return "", exhausted("domain name label length", 1, 0)
		}
		l := int(buf[pos])
		pos++

		switch {
		case l == 0:
			if !jumped {
				r.pos = pos
			}
			return strings.Join(labels, "."), nil

		case l&pointerMask == compressionFlag:
			if r.msg == nil {
				return "", malformed("compression pointer in standalone record data at offset %d", pos-1)
			}
			if pos >= len(buf) {
				if jumped {
					return "", malformed("compression pointer leads past end of message")
				}
				return "", exhausted("compression pointer", 2, 1)
			}
			target := (l&pointerLowBits)<<8 | int(buf[pos])
			pos++
			if !jumped {
				r.pos = pos
				jumped = true
			}
			hops++
			if hops > maxPointerHops {
				return "", malformed("too many compression pointers")
			}
			if target >= len(r.msg) {
				return "", malformed("compression pointer %d out of range", target)
			}
			buf, pos = r.msg, target

		case l&pointerMask != 0:
			return "", malformed("unsupported label type %#x", l&pointerMask)

		default:
			if pos+l > len(buf) {
				if jumped {
					return "", malformed("label leads past end of message")
				}
				return "", exhausted("domain name label", l, len(buf)-pos)
			}
			length += l + 1
			if length+1 > maxNameLength {
				return "", malformed("domain name longer than %d bytes", maxNameLength)
			}
			labels = append(labels, escapeLabel(buf[pos:pos+l]))
			pos += l
		}
	}
}

// EncodeDomainName encodes a dotted name as length-prefixed labels ending in
// the zero-length root label. A trailing dot is optional; "" and "." encode
// the root name.
func EncodeDomainName(name string) ([]byte, error) {
	return AppendDomainName(nil, name)
}

// AppendDomainName appends the wire form of name to b. "\." and "\\"
// stand for a literal dot or backslash inside a label.
func AppendDomainName(b []byte, name string) ([]byte, error) {
	labels, err := splitLabels(name)
	if err != nil {
		return nil, err
	}
	if len(labels) == 1 && len(labels[0]) == 0 {
		return append(b, 0), nil
	}
	wireLen := 1
	for _, label := range labels {
		wireLen += len(label) + 1
	}
	if wireLen > maxNameLength {
		return nil, malformed("domain name too long: %d bytes", wireLen)
	}
	for _, label := range labels {
		if len(label) == 0 {
			return nil, malformed("empty label in %q", name)
		}
		if len(label) > maxLabelLength {
			return nil, malformed("label too long: %s", label)
		}
		b = append(b, byte(len(label)))
		b = append(b, label...)
	}
	return append(b, 0), nil
}

func escapeLabel(label []byte) string {
	if bytes.IndexAny(label, `.\`) < 0 {
		return string(label)
	}
	var sb strings.Builder
	for _, c := range label {
		if c == '.' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// splitLabels splits a dotted name into raw labels. A single trailing dot
// is dropped; "" and "." yield one empty label.
func splitLabels(name string) ([][]byte, error) {
	var labels [][]byte
	cur := []byte{}
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '\\':
			if i+1 == len(name) {
				return nil, malformed("dangling escape in %q", name)
			}
			i++
			cur = append(cur, name[i])
		case '.':
			labels = append(labels, cur)
			cur = []byte{}
		default:
			cur = append(cur, c)
		}
	}
	labels = append(labels, cur)
	if n := len(labels); n > 1 && len(labels[n-1]) == 0 {
		labels = labels[:n-1]
	}
	return labels, nil
}
