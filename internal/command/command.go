package command

import (
	"context"
	"strings"
)

// Command is a parsed schema statement.
type Command interface {
	// Execute applies the command to the schema and returns the resulting
	// number of properties of the target class.
	Execute(ctx context.Context, s Schema) (int, error)

	// Quorum returns the replication acknowledgment requirement.
	Quorum() Quorum

	// Undo returns the statement reverting the effect of the command, or ""
	// if there is none.
	Undo() string

	// Syntax returns the grammar of the statement.
	Syntax() string

	// String returns the canonical statement text.
	String() string
}

// Quote an identifier with backticks if it would not survive tokenizing.
func quoteIdentifier(name string) string {
	if strings.ContainsAny(name, " \t\n\r\f\v.(),'\"") {
		return "`" + name + "`"
	}
	return name
}

func qualifiedName(class, field string) string {
	return quoteIdentifier(class) + "." + quoteIdentifier(field)
}
