package deb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oasis-go/oasisutil/internal/oasiserr"
)

// typeChar/charType map the six known format variants to/from their
// single-letter codes in the host filename suffix grammar.
func typeChar(f FileFormat) (byte, error) {
	switch f.Type() {
	case FormatSequential:
		return 'S', nil
	case FormatDirect:
		return 'D', nil
	case FormatRelocatable:
		return 'R', nil
	case FormatAbsolute:
		return 'A', nil
	case FormatIndexed:
		return 'I', nil
	case FormatKeyed:
		return 'K', nil
	default:
		return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "format byte 0x%02X has no host filename encoding", byte(f))
	}
}

func charType(c byte) (FileFormat, error) {
	switch c {
	case 'S':
		return FormatSequential, nil
	case 'D':
		return FormatDirect, nil
	case 'R':
		return FormatRelocatable, nil
	case 'A':
		return FormatAbsolute, nil
	case 'I':
		return FormatIndexed, nil
	case 'K':
		return FormatKeyed, nil
	default:
		return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "unknown format letter %q", string(c))
	}
}

// attrString renders attribute bits in canonical R, W, D order.
func attrString(attrs byte) string {
	var b strings.Builder
	if attrs&AttrRead != 0 {
		b.WriteByte('R')
	}
	if attrs&AttrWrite != 0 {
		b.WriteByte('W')
	}
	if attrs&AttrDelete != 0 {
		b.WriteByte('D')
	}
	return b.String()
}

// parseAttrs accepts the attribute letters in any order.
func parseAttrs(s string) (byte, error) {
	var attrs byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'R':
			attrs |= AttrRead
		case 'W':
			attrs |= AttrWrite
		case 'D':
			attrs |= AttrDelete
		default:
			return 0, oasiserr.Newf(oasiserr.KindInvalidArgument, "unknown attribute letter %q", string(s[i]))
		}
	}
	return attrs, nil
}

// FormatHostFilename renders d's canonical host-visible name, the
// DEB-to-host-filename direction of the suffix grammar.
func FormatHostFilename(d DEB) (string, error) {
	tc, err := typeChar(d.Format)
	if err != nil {
		return "", err
	}
	attrs := attrString(d.Format.Attrs())
	base := fmt.Sprintf("%s.%s", d.FileName, d.FileType)

	switch d.Format.Type() {
	case FormatSequential:
		if d.FileFormatDependent1 == 0 && attrs == "" {
			return fmt.Sprintf("%s_%c", base, tc), nil
		}
		return fmt.Sprintf("%s_%c%s_%d", base, tc, attrs, d.FileFormatDependent1), nil

	case FormatDirect, FormatRelocatable:
		return fmt.Sprintf("%s_%c%s_%d", base, tc, attrs, d.FileFormatDependent1), nil

	case FormatAbsolute:
		return fmt.Sprintf("%s_%c%s_%d_%04X", base, tc, attrs, d.FileFormatDependent1, d.FileFormatDependent2), nil

	case FormatIndexed, FormatKeyed:
		n1 := d.FileFormatDependent1 & 0x1FF
		n2 := (d.FileFormatDependent1 >> 9) & 0x7F
		return fmt.Sprintf("%s_%c%s_%d_%d", base, tc, attrs, n1, n2), nil

	default:
		return "", oasiserr.Newf(oasiserr.KindInvalidArgument, "format byte 0x%02X is not a recognized variant", byte(d.Format))
	}
}

// ParseHostFilename is the inverse of FormatHostFilename: it recovers the
// format byte, name, type, and format-dependent fields a host filename
// encodes. Fields not carried in the name (timestamp, block_count,
// record_count, owner) are left zero in the result.
func ParseHostFilename(name string) (DEB, error) {
	var d DEB

	underscoreIdx := strings.IndexByte(name, '_')
	nameTypePart := name
	suffix := ""
	if underscoreIdx >= 0 {
		nameTypePart = name[:underscoreIdx]
		suffix = name[underscoreIdx+1:]
	}

	dotIdx := strings.IndexByte(nameTypePart, '.')
	base, typ := nameTypePart, ""
	if dotIdx >= 0 {
		base, typ = nameTypePart[:dotIdx], nameTypePart[dotIdx+1:]
	}
	base = strings.ToUpper(base)
	typ = strings.ToUpper(typ)
	if len(base) > 8 {
		return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "file name %q exceeds 8 characters", base)
	}
	if len(typ) > 8 {
		return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "file type %q exceeds 8 characters", typ)
	}
	d.FileName = base
	d.FileType = typ

	if suffix == "" {
		d.Format = FormatSequential
		d.FileFormatDependent1 = 0
		return d, nil
	}

	tc := suffix[0]
	ft, err := charType(tc)
	if err != nil {
		return DEB{}, err
	}
	rest := suffix[1:]

	nextUnderscore := strings.IndexByte(rest, '_')
	attrsPart, numTail := rest, ""
	if nextUnderscore >= 0 {
		attrsPart, numTail = rest[:nextUnderscore], rest[nextUnderscore+1:]
	}
	attrs, err := parseAttrs(attrsPart)
	if err != nil {
		return DEB{}, err
	}
	d.Format = FileFormat(byte(ft) | attrs)

	var parts []string
	if numTail != "" {
		parts = strings.Split(numTail, "_")
	}

	switch ft {
	case FormatSequential:
		if len(parts) >= 1 {
			n1, err := strconv.ParseUint(parts[0], 10, 16)
			if err != nil {
				return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad FFD1 %q: %v", parts[0], err)
			}
			d.FileFormatDependent1 = uint16(n1)
		}

	case FormatDirect, FormatRelocatable:
		if len(parts) < 1 {
			return DEB{}, oasiserr.New(oasiserr.KindInvalidArgument, "direct/relocatable file requires a numeric tail")
		}
		n1, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad FFD1 %q: %v", parts[0], err)
		}
		if ft == FormatDirect && n1 == 0 {
			return DEB{}, oasiserr.New(oasiserr.KindInvalidArgument, "direct file record length must be > 0")
		}
		d.FileFormatDependent1 = uint16(n1)

	case FormatAbsolute:
		if len(parts) < 2 {
			return DEB{}, oasiserr.New(oasiserr.KindInvalidArgument, "absolute file requires load-address tail")
		}
		n1, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad FFD1 %q: %v", parts[0], err)
		}
		n2, err := strconv.ParseUint(parts[1], 16, 16)
		if err != nil {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad load address %q: %v", parts[1], err)
		}
		d.FileFormatDependent1 = uint16(n1)
		d.FileFormatDependent2 = uint16(n2)

	case FormatIndexed, FormatKeyed:
		if len(parts) < 2 {
			return DEB{}, oasiserr.New(oasiserr.KindInvalidArgument, "indexed/keyed file requires record-length and key-length tail")
		}
		n1, err := strconv.ParseUint(parts[0], 10, 16)
		if err != nil {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad record length %q: %v", parts[0], err)
		}
		n2, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "bad key length %q: %v", parts[1], err)
		}
		if n1 > 511 {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "record length %d exceeds 511", n1)
		}
		if n2 > 127 {
			return DEB{}, oasiserr.Newf(oasiserr.KindInvalidArgument, "key length %d exceeds 127", n2)
		}
		d.FileFormatDependent1 = uint16(n1) | uint16(n2)<<9
	}

	return d, nil
}
