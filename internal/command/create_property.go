package command

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/internal/schema"
)

// CreateProperty creates a new property in an existing class.
type CreateProperty struct {
	className  string
	fieldName  string
	typ        schema.Type
	linked     string
	attributes Attributes
	writes     []Write
	unsafe     bool
}

// ClassName returns the name of the target class.
func (c *CreateProperty) ClassName() string { return c.className }

// FieldName returns the name of the property to create.
func (c *CreateProperty) FieldName() string { return c.fieldName }

// Type returns the declared type of the property.
func (c *CreateProperty) Type() schema.Type { return c.typ }

// Linked returns the name of the linked class or type, or "" if none was
// given. It is resolved at execution time, classes first.
func (c *CreateProperty) Linked() string { return c.linked }

// Attributes returns the attribute clause.
func (c *CreateProperty) Attributes() Attributes { return c.attributes }

// Writes returns the attribute assignments that Execute applies to the new
// property.
func (c *CreateProperty) Writes() []Write {
	return append([]Write(nil), c.writes...)
}

// Unsafe reports whether the UNSAFE modifier was given.
func (c *CreateProperty) Unsafe() bool { return c.unsafe }

// Quorum returns QuorumAll: schema changes must reach every replica.
func (c *CreateProperty) Quorum() Quorum {
	return QuorumAll
}

// Undo returns the DROP PROPERTY statement for the same property.
func (c *CreateProperty) Undo() string {
	return "DROP PROPERTY " + qualifiedName(c.className, c.fieldName)
}

// Syntax returns the grammar of CREATE PROPERTY.
func (c *CreateProperty) Syntax() string {
	return "CREATE PROPERTY <class>.<property> <type> [<linked-type>|<linked-class>] " +
		"[(mandatory <true|false>, readonly <true|false>, notnull <true|false>, " +
		"default <value>, min <value>, max <value>, collate <value>, regex <value>)] " +
		"[UNSAFE]"
}

// String returns the statement in canonical form. Parsing it yields an
// equivalent command.
func (c *CreateProperty) String() string {
	b := strings.Builder{}
	b.WriteString("CREATE PROPERTY ")
	b.WriteString(qualifiedName(c.className, c.fieldName))
	b.WriteString(" ")
	b.WriteString(c.typ.String())
	if c.linked != "" {
		b.WriteString(" `" + c.linked + "`")
	}
	if len(c.writes) > 0 {
		entries := make([]string, len(c.writes))
		for i, w := range c.writes {
			entry := w.Attribute.String()
			if !w.Attribute.isFlag() {
				if w.Value == nil {
					entry += " null"
				} else {
					entry += " " + quoteValue(*w.Value)
				}
			}
			entries[i] = entry
		}
		b.WriteString(" (" + strings.Join(entries, ", ") + ")")
	}
	if c.unsafe {
		b.WriteString(" UNSAFE")
	}
	return b.String()
}

// Execute creates the property and applies its attributes, returning the
// new number of properties of the class.
//
// All checks and writes happen inside the critical section of the class,
// and the schema is left unchanged if any of them fails.
func (c *CreateProperty) Execute(ctx context.Context, s Schema) (int, error) {
	if !c.typ.Valid() {
		return 0, executionErrorf("cannot execute the command because it has not been parsed yet")
	}

	source, ok := s.Class(c.className)
	if !ok {
		return 0, executionErrorf("source class '%s' not found", c.className)
	}

	count := 0
	err := source.Mutate(ctx, func(tx *schema.ClassTx) error {
		if _, ok := tx.Property(c.fieldName); ok {
			return executionErrorf(
				"property '%s.%s' already exists. Remove it before to retry", source.Name(), c.fieldName)
		}

		property := schema.Property{
			Name:   c.fieldName,
			Type:   c.typ,
			Unsafe: c.unsafe,
		}

		if c.linked != "" {
			if linked, ok := s.Class(c.linked); ok {
				property.LinkedClass = linked.Name()
			} else {
				typ, err := schema.ParseType(c.linked)
				if err != nil {
					return executionErrorf("linked class or type '%s' not found", c.linked)
				}
				property.LinkedType = typ
			}
		}

		for _, w := range c.writes {
			if err := w.apply(&property); err != nil {
				return executionErrorf("property '%s.%s': %v", source.Name(), c.fieldName, err)
			}
		}

		if err := tx.AddProperty(property); err != nil {
			return err
		}
		count = tx.PropertyCount()
		return nil
	})
	if err != nil {
		if _, ok := err.(*ExecutionError); ok {
			return 0, err
		}
		return 0, errors.Wrap(err, "create property")
	}

	return count, nil
}
