package command

import (
	"context"

	"github.com/pkg/errors"

	"github.com/canonical/go-ddl/internal/schema"
)

// DropProperty removes a property from a class.
type DropProperty struct {
	className string
	fieldName string
}

// ParseDropProperty parses a statement of the form:
//
//	DROP PROPERTY <class>.<property>
func ParseDropProperty(text string, classes Schema) (*DropProperty, error) {
	s := newScanner(text)
	if err := s.expect(keywordDrop); err != nil {
		return nil, err
	}
	if err := s.expect(keywordProperty); err != nil {
		return nil, err
	}
	class, field, err := s.qualifiedName(classes)
	if err != nil {
		return nil, err
	}
	if _, err := expectEnd(s, s.pos); err != nil {
		return nil, err
	}
	return &DropProperty{className: class, fieldName: field}, nil
}

// ClassName returns the name of the target class.
func (d *DropProperty) ClassName() string { return d.className }

// FieldName returns the name of the property to drop.
func (d *DropProperty) FieldName() string { return d.fieldName }

func (d *DropProperty) Quorum() Quorum { return QuorumAll }

// Undo returns "": the definition of the dropped property is not retained.
func (d *DropProperty) Undo() string { return "" }

func (d *DropProperty) Syntax() string {
	return "DROP PROPERTY <class>.<property>"
}

func (d *DropProperty) String() string {
	return "DROP PROPERTY " + qualifiedName(d.className, d.fieldName)
}

// Execute removes the property and returns the remaining number of
// properties of the class.
func (d *DropProperty) Execute(ctx context.Context, s Schema) (int, error) {
	if d.className == "" {
		return 0, executionErrorf("cannot execute the command because it has not been parsed yet")
	}

	source, ok := s.Class(d.className)
	if !ok {
		return 0, executionErrorf("source class '%s' not found", d.className)
	}

	count := 0
	err := source.Mutate(ctx, func(tx *schema.ClassTx) error {
		if _, ok := tx.Property(d.fieldName); !ok {
			return executionErrorf("property '%s.%s' not found", source.Name(), d.fieldName)
		}
		if err := tx.DropProperty(d.fieldName); err != nil {
			return err
		}
		count = tx.PropertyCount()
		return nil
	})
	if err != nil {
		if _, ok := err.(*ExecutionError); ok {
			return 0, err
		}
		return 0, errors.Wrap(err, "drop property")
	}

	return count, nil
}
