package command

import (
	"strings"

	"github.com/canonical/go-ddl/internal/schema"
)

// Value is an optional attribute value.
type Value struct {
	Set  bool   // The attribute was given.
	Null bool   // The attribute was given as null, clearing it.
	Text string // Unquoted value, if set and not null.
}

// Ptr returns a pointer to the value text, or nil if the value is unset or
// null.
func (v Value) Ptr() *string {
	if !v.Set || v.Null {
		return nil
	}
	text := v.Text
	return &text
}

// Attributes holds the attribute clause of a CREATE PROPERTY statement.
type Attributes struct {
	Mandatory bool
	Readonly  bool
	NotNull   bool
	Min       Value
	Max       Value
	Default   Value
	Collate   Value
	Regex     Value
}

// Attribute identifies a property attribute.
type Attribute int

// Property attributes, in the order their writes are applied.
const (
	AttributeReadonly Attribute = iota
	AttributeMandatory
	AttributeNotNull
	AttributeMax
	AttributeMin
	AttributeDefault
	AttributeCollate
	AttributeRegex
)

var attributeKeywords = map[keyword]Attribute{
	keywordReadonly:  AttributeReadonly,
	keywordMandatory: AttributeMandatory,
	keywordNotNull:   AttributeNotNull,
	keywordMax:       AttributeMax,
	keywordMin:       AttributeMin,
	keywordDefault:   AttributeDefault,
	keywordCollate:   AttributeCollate,
	keywordRegex:     AttributeRegex,
}

// String returns the attribute keyword, in lower case.
func (a Attribute) String() string {
	for kw, attribute := range attributeKeywords {
		if attribute == a {
			return strings.ToLower(kw.String())
		}
	}
	return "unknown"
}

func (a Attribute) isFlag() bool {
	return a == AttributeReadonly || a == AttributeMandatory || a == AttributeNotNull
}

// Write is a pending attribute assignment on a new property.
type Write struct {
	Attribute Attribute
	Value     *string // Nil clears the attribute. Unused by flags.
}

func (w Write) apply(p *schema.Property) error {
	switch w.Attribute {
	case AttributeReadonly:
		return p.SetReadonly(true)
	case AttributeMandatory:
		return p.SetMandatory(true)
	case AttributeNotNull:
		return p.SetNotNull(true)
	case AttributeMax:
		return p.SetMax(w.Value)
	case AttributeMin:
		return p.SetMin(w.Value)
	case AttributeDefault:
		return p.SetDefault(w.Value)
	case AttributeCollate:
		return p.SetCollate(w.Value)
	case AttributeRegex:
		return p.SetRegex(w.Value)
	}
	return nil
}

// Writes returns the attribute assignments implied by the clause, in
// application order. Flags produce a write only when true; valued
// attributes produce one whenever they were given, null included.
func (a Attributes) Writes() []Write {
	writes := []Write{}
	flag := func(attribute Attribute, on bool) {
		if on {
			writes = append(writes, Write{Attribute: attribute})
		}
	}
	value := func(attribute Attribute, v Value) {
		if v.Set {
			writes = append(writes, Write{Attribute: attribute, Value: v.Ptr()})
		}
	}
	flag(AttributeReadonly, a.Readonly)
	flag(AttributeMandatory, a.Mandatory)
	flag(AttributeNotNull, a.NotNull)
	value(AttributeMax, a.Max)
	value(AttributeMin, a.Min)
	value(AttributeDefault, a.Default)
	value(AttributeCollate, a.Collate)
	value(AttributeRegex, a.Regex)
	return writes
}

// Parse the body of an attribute clause, without the enclosing parentheses.
// Offset is the position of the body in text, used for error reporting.
func parseAttributes(text string, offset int, body string) (Attributes, error) {
	attributes := Attributes{}
	seen := map[Attribute]bool{}

	invalid := func(entry string) error {
		return parseErrorf(text, offset, "invalid attribute definition: '%s'", strings.TrimSpace(entry))
	}

	for _, entry := range splitQuoted(body, func(c byte) bool { return c == ',' }) {
		parts := splitQuoted(strings.TrimSpace(entry), isSpace)
		if len(parts) == 0 || len(parts) > 2 {
			return attributes, invalid(entry)
		}

		attribute, ok := attributeKeywords[lookupKeyword(parts[0])]
		if !ok {
			return attributes, invalid(entry)
		}
		if seen[attribute] {
			return attributes, parseErrorf(text, offset, "duplicate attribute %s", attribute)
		}
		seen[attribute] = true

		raw, given := "", len(parts) == 2
		if given {
			raw = strings.TrimSpace(parts[1])
		}

		if attribute.isFlag() {
			on := !given || raw == "" || strings.EqualFold(raw, "true")
			switch attribute {
			case AttributeReadonly:
				attributes.Readonly = on
			case AttributeMandatory:
				attributes.Mandatory = on
			case AttributeNotNull:
				attributes.NotNull = on
			}
			continue
		}

		if raw == "" {
			return attributes, invalid(entry)
		}
		value := Value{Set: true}
		if strings.EqualFold(raw, "null") {
			value.Null = true
		} else {
			value.Text = unquote(raw)
		}

		switch attribute {
		case AttributeMin:
			attributes.Min = value
		case AttributeMax:
			attributes.Max = value
		case AttributeDefault:
			attributes.Default = value
		case AttributeCollate:
			attributes.Collate = value
		case AttributeRegex:
			attributes.Regex = value
		}
	}

	return attributes, nil
}

// Split s at every byte matching sep, except inside "...", '...' or `...`.
// Inside double quotes a backslash escapes a double quote or a backslash.
// When sep matches whitespace, runs of separators count as one and empty
// fields are dropped.
func splitQuoted(s string, sep func(byte) bool) []string {
	fields := []string{}
	collapse := sep(' ')
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if isEscape(s, i, quote) {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case sep(c):
			if !collapse || i > start {
				fields = append(fields, s[start:i])
			}
			start = i + 1
		}
	}
	if !collapse || len(s) > start {
		fields = append(fields, s[start:])
	}
	return fields
}

// Strip a matching pair of enclosing quotes. Escapes inside a double-quoted
// value are resolved.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != '"' && first != '\'' && first != '`') {
		return s
	}
	s = s[1 : len(s)-1]
	if first != '"' || !strings.Contains(s, `\`) {
		return s
	}
	b := strings.Builder{}
	for i := 0; i < len(s); i++ {
		if isEscape(s, i, '"') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Report whether s[i] starts an escape sequence inside the given quotes:
// a backslash followed by a double quote or a backslash, in double quotes.
func isEscape(s string, i int, quote byte) bool {
	return quote == '"' && s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\')
}

// Quote a value with double quotes, escaping backslashes and double quotes.
func quoteValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
