package table

import (
	"fmt"
	"strings"

	"github.com/arloliu/fitstile/header"
)

// Column format codes written to TFORMn.
const (
	FormByteArray = "1PB" // variable length byte array (compressed payloads, masks)
	FormFloat64   = "1D"  // per-tile ZSCALE, ZZERO
	FormInt32     = "1J"  // per-tile ZBLANK
	FormInt64     = "1K"  // per-tile ZBLANK beyond the int32 range
)

// FindColumnCard scans TTYPE1..TTYPEn (n = TFIELDS) for name and returns the
// 1-based column number.
func FindColumnCard(h header.Access, name string) (int, bool, error) {
	fields, ok, err := header.Int(h, "TFIELDS")
	if err != nil || !ok {
		return 0, false, err
	}

	want := strings.ToUpper(strings.TrimSpace(name))
	for n := 1; n <= int(fields); n++ {
		ttype, ok, err := header.String(h, fmt.Sprintf("TTYPE%d", n))
		if err != nil {
			return 0, false, err
		}
		if ok && strings.ToUpper(strings.TrimSpace(ttype)) == want {
			return n, true, nil
		}
	}

	return 0, false, nil
}

// DeclareColumn appends TTYPEn/TFORMn cards for a new column and bumps TFIELDS.
// It returns the 1-based column number.
func DeclareColumn(h header.Access, name, form string) (int, error) {
	fields, _, err := header.Int(h, "TFIELDS")
	if err != nil {
		return 0, err
	}

	n := int(fields) + 1
	h.Set("TFIELDS", n, "number of fields in each row")
	h.Set(fmt.Sprintf("TTYPE%d", n), strings.ToUpper(name), "")
	h.Set(fmt.Sprintf("TFORM%d", n), form, "")

	return n, nil
}
