package schema

import (
	"strings"

	"github.com/pkg/errors"
)

// Type identifies the value type of a property.
type Type uint8

// Available property types. The zero value is not a valid type and marks a
// property definition that has not been filled in.
const (
	Boolean Type = iota + 1
	Integer
	Short
	Long
	Float
	Double
	DateTime
	String
	Binary
	Embedded
	EmbeddedList
	EmbeddedSet
	EmbeddedMap
	Link
	LinkList
	LinkSet
	LinkMap
	Byte
	Transient
	Date
	Custom
	Decimal
	LinkBag
	Any
)

var typeNames = [...]string{
	Boolean:      "BOOLEAN",
	Integer:      "INTEGER",
	Short:        "SHORT",
	Long:         "LONG",
	Float:        "FLOAT",
	Double:       "DOUBLE",
	DateTime:     "DATETIME",
	String:       "STRING",
	Binary:       "BINARY",
	Embedded:     "EMBEDDED",
	EmbeddedList: "EMBEDDEDLIST",
	EmbeddedSet:  "EMBEDDEDSET",
	EmbeddedMap:  "EMBEDDEDMAP",
	Link:         "LINK",
	LinkList:     "LINKLIST",
	LinkSet:      "LINKSET",
	LinkMap:      "LINKMAP",
	Byte:         "BYTE",
	Transient:    "TRANSIENT",
	Date:         "DATE",
	Custom:       "CUSTOM",
	Decimal:      "DECIMAL",
	LinkBag:      "LINKBAG",
	Any:          "ANY",
}

// String implements the Stringer interface.
func (t Type) String() string {
	if t == 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	return t != 0 && int(t) < len(typeNames)
}

// IsNumeric reports whether values of this type are compared numerically
// when checking min/max bounds.
func (t Type) IsNumeric() bool {
	switch t {
	case Integer, Short, Long, Float, Double, Byte, Decimal:
		return true
	}
	return false
}

// ParseType returns the type with the given name, ignoring case.
func ParseType(name string) (Type, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for t, n := range typeNames {
		if t != 0 && n == upper {
			return Type(t), nil
		}
	}
	return 0, errors.Errorf("unknown type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, errors.Errorf("invalid type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
