package schema

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Collations accepted by SetCollate.
const (
	CollateDefault         = "default"
	CollateCaseInsensitive = "ci"
)

// Property holds the definition of a single class property.
type Property struct {
	Name        string  `json:"name"`
	Type        Type    `json:"type"`
	LinkedType  Type    `json:"linkedType,omitempty"`
	LinkedClass string  `json:"linkedClass,omitempty"`
	Mandatory   bool    `json:"mandatory,omitempty"`
	Readonly    bool    `json:"readonly,omitempty"`
	NotNull     bool    `json:"notNull,omitempty"`
	Min         *string `json:"min,omitempty"`
	Max         *string `json:"max,omitempty"`
	Default     *string `json:"default,omitempty"`
	Collate     string  `json:"collate,omitempty"`
	Regex       string  `json:"regex,omitempty"`
	Unsafe      bool    `json:"unsafe,omitempty"`
}

// SetMandatory sets whether documents must carry a value for the property.
func (p *Property) SetMandatory(mandatory bool) error {
	p.Mandatory = mandatory
	return nil
}

// SetReadonly sets whether the property value can change once written.
func (p *Property) SetReadonly(readonly bool) error {
	p.Readonly = readonly
	return nil
}

// SetNotNull sets whether the property rejects null values.
func (p *Property) SetNotNull(notNull bool) error {
	p.NotNull = notNull
	return nil
}

// SetMin sets the lower bound of the property. A nil value clears it.
func (p *Property) SetMin(min *string) error {
	if err := p.checkBound(min, p.Max, true); err != nil {
		return errors.Wrap(err, "min")
	}
	p.Min = copyValue(min)
	return nil
}

// SetMax sets the upper bound of the property. A nil value clears it.
func (p *Property) SetMax(max *string) error {
	if err := p.checkBound(max, p.Min, false); err != nil {
		return errors.Wrap(err, "max")
	}
	p.Max = copyValue(max)
	return nil
}

// SetDefault sets the default value of the property. A nil value clears it.
func (p *Property) SetDefault(value *string) error {
	if value != nil && p.Type == Boolean {
		if _, err := strconv.ParseBool(*value); err != nil {
			return errors.Errorf("default: %q is not a boolean", *value)
		}
	}
	p.Default = copyValue(value)
	return nil
}

// SetCollate sets the collation of the property. A nil value restores the
// default collation.
func (p *Property) SetCollate(collate *string) error {
	if collate == nil {
		p.Collate = ""
		return nil
	}
	name := strings.ToLower(*collate)
	switch name {
	case CollateDefault:
		p.Collate = ""
	case CollateCaseInsensitive:
		p.Collate = name
	default:
		return errors.Errorf("collate: unknown collation %q", *collate)
	}
	return nil
}

// SetRegex sets the pattern property values must match. A nil value clears
// it.
func (p *Property) SetRegex(pattern *string) error {
	if pattern == nil {
		p.Regex = ""
		return nil
	}
	if _, err := regexp.Compile(*pattern); err != nil {
		return errors.Wrap(err, "regex")
	}
	p.Regex = *pattern
	return nil
}

// Bounds of numeric properties are compared as numbers, bounds of every
// other property are sizes (string length, collection size) and must be
// non-negative integers. Date bounds are kept verbatim.
func (p *Property) checkBound(value, other *string, lower bool) error {
	if value == nil {
		return nil
	}
	parse := p.boundParser()
	if parse == nil {
		return nil
	}
	n, err := parse(*value)
	if err != nil {
		return err
	}
	if other == nil {
		return nil
	}
	m, err := parse(*other)
	if err != nil {
		return nil
	}
	if (lower && n > m) || (!lower && n < m) {
		return errors.Errorf("bounds %s and %s are inverted", *value, *other)
	}
	return nil
}

func (p *Property) boundParser() func(string) (float64, error) {
	switch {
	case p.Type.IsNumeric():
		return func(s string) (float64, error) {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, errors.Errorf("%q is not a number", s)
			}
			return n, nil
		}
	case p.Type == Date || p.Type == DateTime:
		return nil
	default:
		return func(s string) (float64, error) {
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return 0, errors.Errorf("%q is not a valid size", s)
			}
			return float64(n), nil
		}
	}
}

func copyValue(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
