package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUnterminated = errors.New("unterminated list")

// ParseStringList parses a bracketed list of quoted strings as written by
// Python's repr, e.g. ['preheat oven', "baker's sugar"]. Strings may use
// single or double quotes and backslash escapes.
func ParseStringList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("not a list literal: %q", truncate(raw))
	}

	p := listParser{src: s[1 : len(s)-1]}
	items := []string{}
	for {
		p.skipSpace()
		if p.done() {
			return items, nil
		}

		item, err := p.quoted()
		if err != nil {
			return nil, fmt.Errorf("%w in %q", err, truncate(raw))
		}
		items = append(items, item)

		p.skipSpace()
		if p.done() {
			return items, nil
		}
		if p.src[p.pos] != ',' {
			return nil, fmt.Errorf("expected ',' at offset %d in %q", p.pos+1, truncate(raw))
		}
		p.pos++
	}
}

type listParser struct {
	src string
	pos int
}

func (p *listParser) done() bool {
	return p.pos >= len(p.src)
}

func (p *listParser) skipSpace() {
	for !p.done() && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *listParser) quoted() (string, error) {
	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected quote at offset %d", p.pos+1)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", errUnterminated
}

// escape decodes the escape sequence at the current position
func (p *listParser) escape(b *strings.Builder) error {
	if p.pos+1 >= len(p.src) {
		return errUnterminated
	}
	c := p.src[p.pos+1]
	p.pos += 2

	switch c {
	case '\\', '\'', '"':
		b.WriteByte(c)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'x':
		return p.codePoint(b, 2)
	case 'u':
		return p.codePoint(b, 4)
	case 'U':
		return p.codePoint(b, 8)
	default:
		// unknown escapes are kept verbatim
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *listParser) codePoint(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return errUnterminated
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return fmt.Errorf("invalid escape at offset %d", p.pos)
	}
	b.WriteRune(rune(n))
	p.pos += digits
	return nil
}

// Nutrition holds the values of the nutrition column in file order
type Nutrition struct {
	Calories         float64
	TotalFatPDV      float64
	SugarPDV         float64
	SodiumPDV        float64
	ProteinPDV       float64
	SaturatedFatPDV  float64
	CarbohydratesPDV float64
}

// ParseNutrition parses a bracketed list of exactly seven numbers
func ParseNutrition(raw string) (Nutrition, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	if len(parts) != 7 {
		return Nutrition{}, fmt.Errorf("nutrition has %d values, want 7: %q", len(parts), truncate(raw))
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Nutrition{}, fmt.Errorf("invalid nutrition value %q: %w", part, err)
		}
		values[i] = v
	}

	return Nutrition{
		Calories:         values[0],
		TotalFatPDV:      values[1],
		SugarPDV:         values[2],
		SodiumPDV:        values[3],
		ProteinPDV:       values[4],
		SaturatedFatPDV:  values[5],
		CarbohydratesPDV: values[6],
	}, nil
}

func truncate(s string) string {
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
