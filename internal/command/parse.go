package command

import (
	"strings"

	"github.com/canonical/go-ddl/internal/schema"
)

// Schema is the view of the database schema used to parse and execute
// commands.
type Schema interface {
	// Class returns the class with the given name, ignoring case.
	Class(name string) (*schema.Class, bool)
}

// Parse a schema statement. Supported statements are CREATE PROPERTY and
// DROP PROPERTY.
func Parse(text string, s Schema) (Command, error) {
	upper := upperASCII(text)
	first, pos := nextWord(text, upper, 0, true)
	if pos == -1 {
		return nil, parseErrorf(text, 0, "unsupported statement")
	}
	second, _ := nextWord(text, upper, pos, true)
	if lookupKeyword(second) == keywordProperty {
		switch lookupKeyword(first) {
		case keywordCreate:
			return ParseCreateProperty(text, s)
		case keywordDrop:
			return ParseDropProperty(text, s)
		}
	}
	return nil, parseErrorf(text, 0, "unsupported statement")
}

// Scanning position over a statement.
type scanner struct {
	text  string
	upper string
	pos   int
}

func newScanner(text string) *scanner {
	return &scanner{text: text, upper: upperASCII(text)}
}

// Consume the next word, which must be the given keyword.
func (s *scanner) expect(kw keyword) error {
	word, pos := nextWord(s.text, s.upper, s.pos, true)
	if pos == -1 || lookupKeyword(word) != kw {
		return parseErrorf(s.text, s.pos, "keyword %s not found", kw)
	}
	s.pos = pos
	return nil
}

// Consume a <class>.<property> word. The class must exist.
func (s *scanner) qualifiedName(classes Schema) (string, string, error) {
	word, pos := nextWord(s.text, s.upper, s.pos, false)
	if pos == -1 {
		return "", "", parseErrorf(s.text, s.pos, "expected <class>.<property>")
	}
	parts := splitQualified(word)
	if len(parts) != 2 {
		return "", "", parseErrorf(s.text, s.pos, "expected <class>.<property>")
	}
	class, ok := classes.Class(parts[0])
	if !ok {
		return "", "", parseErrorf(s.text, s.pos, "class %s not found", parts[0])
	}
	s.pos = pos
	return class.Name(), parts[1], nil
}

// A parse state consumes part of the statement and fills in the builder,
// returning the next state, or nil when done.
type createPropertyState func(*scanner, *createPropertyBuilder) (createPropertyState, error)

// Accumulates the fields of a CREATE PROPERTY command while parsing. It
// never escapes ParseCreateProperty.
type createPropertyBuilder struct {
	classes    Schema
	className  string
	fieldName  string
	typ        schema.Type
	linked     string
	attributes Attributes
	unsafe     bool
}

// ParseCreateProperty parses a statement of the form:
//
//	CREATE PROPERTY <class>.<property> <type> [<linked-type>|<linked-class>]
//	  [(<attribute> [<value>], ...)] [UNSAFE]
//
// The class must exist in the given schema.
func ParseCreateProperty(text string, classes Schema) (*CreateProperty, error) {
	s := newScanner(text)
	b := &createPropertyBuilder{classes: classes}

	var state createPropertyState = expectCreate
	for state != nil {
		var err error
		if state, err = state(s, b); err != nil {
			return nil, err
		}
	}

	return b.build(), nil
}

func expectCreate(s *scanner, b *createPropertyBuilder) (createPropertyState, error) {
	if err := s.expect(keywordCreate); err != nil {
		return nil, err
	}
	return expectProperty, nil
}

func expectProperty(s *scanner, b *createPropertyBuilder) (createPropertyState, error) {
	if err := s.expect(keywordProperty); err != nil {
		return nil, err
	}
	return expectQualifiedName, nil
}

func expectQualifiedName(s *scanner, b *createPropertyBuilder) (createPropertyState, error) {
	class, field, err := s.qualifiedName(b.classes)
	if err != nil {
		return nil, err
	}
	b.className, b.fieldName = class, field
	return expectType, nil
}

func expectType(s *scanner, b *createPropertyBuilder) (createPropertyState, error) {
	word, pos := nextWord(s.text, s.upper, s.pos, true)
	if pos == -1 {
		return nil, parseErrorf(s.text, s.pos, "missing property type")
	}
	// The attribute list may follow the type without a space.
	if i := strings.IndexByte(word, '('); i > 0 {
		pos -= len(word) - i
		word = word[:i]
	}
	typ, err := schema.ParseType(word)
	if err != nil {
		return nil, parseErrorf(s.text, s.pos, "unknown property type %s", word)
	}
	b.typ = typ
	s.pos = pos
	return expectSuffix, nil
}

// The optional trailing clauses, each decided on its own, in this order:
// linked type or class, attribute list, UNSAFE. Anything else left over is
// an error.
func expectSuffix(s *scanner, b *createPropertyBuilder) (createPropertyState, error) {
	text := s.text
	pos := skipSpaces(text, s.pos)

	if pos < len(text) && text[pos] != '(' {
		word, quoted, next, err := linkedWord(text, pos)
		if err != nil {
			return nil, err
		}
		if !quoted && lookupKeyword(word) == keywordUnsafe {
			b.unsafe = true
			return expectEnd(s, next)
		}
		b.linked = word
		pos = skipSpaces(text, next)
	}

	if pos < len(text) && text[pos] == '(' {
		end, err := closingParen(text, pos)
		if err != nil {
			return nil, err
		}
		attributes, err := parseAttributes(text, pos+1, text[pos+1:end])
		if err != nil {
			return nil, err
		}
		b.attributes = attributes
		pos = skipSpaces(text, end+1)
	}

	if pos < len(text) {
		word, next := nextWord(text, s.upper, pos, true)
		if lookupKeyword(word) == keywordUnsafe {
			b.unsafe = true
			pos = next
		}
	}

	return expectEnd(s, pos)
}

func expectEnd(s *scanner, pos int) (createPropertyState, error) {
	pos = skipSpaces(s.text, pos)
	if pos < len(s.text) {
		return nil, parseErrorf(s.text, pos, "unexpected text %q", s.text[pos:])
	}
	s.pos = pos
	return nil, nil
}

// Read a linked type or class name starting at pos: either a backtick-quoted
// identifier (returned without the backticks) or a run of characters other
// than whitespace and '('.
func linkedWord(text string, pos int) (string, bool, int, error) {
	if text[pos] == '`' {
		end := strings.IndexByte(text[pos+1:], '`')
		if end == -1 {
			return "", true, 0, parseErrorf(text, pos, "unterminated quoted identifier")
		}
		return text[pos+1 : pos+1+end], true, pos + end + 2, nil
	}
	end := pos
	for end < len(text) && !isSpace(text[end]) && text[end] != '(' {
		end++
	}
	return text[pos:end], false, end, nil
}

// Return the position of the parenthesis closing the one at pos, ignoring
// parentheses inside quotes.
func closingParen(text string, pos int) (int, error) {
	depth := 0
	var quote byte
	for i := pos; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if isEscape(text, i, quote) {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, parseErrorf(text, pos, "missing closing parenthesis")
}

func (b *createPropertyBuilder) build() *CreateProperty {
	return &CreateProperty{
		className:  b.className,
		fieldName:  b.fieldName,
		typ:        b.typ,
		linked:     b.linked,
		attributes: b.attributes,
		writes:     b.attributes.Writes(),
		unsafe:     b.unsafe,
	}
}
