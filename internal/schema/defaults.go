package schema

import (
	"math/big"
	"strings"
	"time"
)

type defaultKind int

const (
	defaultRaw defaultKind = iota
	defaultNumber
	defaultBool
	defaultTime
)

type parsedDefault struct {
	raw    string
	kind   defaultKind
	number *big.Rat
	flag   bool
	when   time.Time
}

var (
	dateLayouts      = []string{"2006-01-02"}
	timeLayouts      = []string{"15:04:05", "15:04:05.999999999", "15:04"}
	timestampLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999999",
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02",
	}
)

// ParsedDefault returns the default value converted to a Go value suited to the column type:
// *big.Rat for numbers, bool for BIT/BOOLEAN, time.Time for date/time types and the raw
// text otherwise. Text that does not parse for its type is returned unchanged as a string.
// ok is false when the column has no default.
func (c *Column) ParsedDefault() (value any, ok bool) {
	if c.DefaultValue == nil {
		return nil, false
	}
	p := c.parseDefault()
	switch p.kind {
	case defaultNumber:
		return p.number, true
	case defaultBool:
		return p.flag, true
	case defaultTime:
		return p.when, true
	default:
		return p.raw, true
	}
}

func (c *Column) parseDefault() *parsedDefault {
	raw := *c.DefaultValue
	if c.parsed != nil && c.parsed.raw == raw {
		return c.parsed
	}
	c.parsed = parseDefaultValue(c.Type, raw)
	return c.parsed
}

func parseDefaultValue(code TypeCode, raw string) *parsedDefault {
	p := &parsedDefault{raw: raw, kind: defaultRaw}
	text := strings.TrimSpace(raw)

	switch code {
	case TypeBit, TypeBoolean:
		switch strings.ToLower(text) {
		case "1", "true", "t", "y", "yes", "on", "b'1'":
			p.kind, p.flag = defaultBool, true
			return p
		case "0", "false", "f", "n", "no", "off", "b'0'":
			p.kind, p.flag = defaultBool, false
			return p
		}
		if code == TypeBoolean {
			return p
		}
		fallthrough
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeFloat, TypeReal, TypeDouble, TypeNumeric, TypeDecimal:
		if r, ok := new(big.Rat).SetString(text); ok {
			p.kind, p.number = defaultNumber, r
		}
	case TypeDate:
		p.parseTime(text, dateLayouts)
	case TypeTime:
		p.parseTime(text, timeLayouts)
	case TypeTimestamp:
		p.parseTime(text, timestampLayouts)
	}
	return p
}

func (p *parsedDefault) parseTime(text string, layouts []string) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			p.kind, p.when = defaultTime, t
			return
		}
	}
}

// SameDefault compares the defaults of two columns as typed values.
// Both columns are parsed with their own type codes; values of different kinds
// (for example a number against unparseable text) compare by their trimmed raw text.
func SameDefault(a, b *Column) bool {
	if a.DefaultValue == nil || b.DefaultValue == nil {
		return a.DefaultValue == nil && b.DefaultValue == nil
	}
	pa, pb := a.parseDefault(), b.parseDefault()
	if pa.kind != pb.kind {
		return strings.TrimSpace(pa.raw) == strings.TrimSpace(pb.raw)
	}
	switch pa.kind {
	case defaultNumber:
		return pa.number.Cmp(pb.number) == 0
	case defaultBool:
		return pa.flag == pb.flag
	case defaultTime:
		return pa.when.Equal(pb.when)
	default:
		return strings.TrimSpace(pa.raw) == strings.TrimSpace(pb.raw)
	}
}
