package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/canonical/go-ddl"
)

// Shell can be used to implement interactive prompts for inspecting and
// changing a class schema.
type Shell struct {
	db     *ddl.Database
	format string
}

// New creates a new Shell operating on the given database.
func New(db *ddl.Database, options ...Option) (*Shell, error) {
	o := defaultOptions()

	for _, option := range options {
		option(o)
	}

	switch o.Format {
	case formatTabular, formatJson, formatYaml:
	default:
		return nil, errors.Errorf("unknown format %q", o.Format)
	}

	shell := &Shell{
		db:     db,
		format: o.Format,
	}

	return shell, nil
}

// Process a single input line.
//
// Lines starting with a dot are shell commands, anything else is executed as
// a schema statement.
func (s *Shell) Process(ctx context.Context, line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	if !strings.HasPrefix(line, ".") {
		return s.processExec(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ".classes":
		return strings.Join(s.db.Classes(), "\n"), nil
	case ".describe":
		if len(fields) != 2 {
			return "", errors.New("usage: .describe <class>")
		}
		return s.processDescribe(fields[1])
	case ".count":
		return s.processCount(fields[1:])
	case ".help":
		return s.processHelp(), nil
	}
	return "", errors.Errorf("unknown command %s", fields[0])
}

func (s *Shell) processExec(ctx context.Context, line string) (string, error) {
	n, err := s.db.Exec(ctx, line)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d properties", n), nil
}

func (s *Shell) processDescribe(class string) (string, error) {
	properties, err := s.db.Properties(class)
	if err != nil {
		return "", err
	}

	switch s.format {
	case formatJson:
		data, err := json.MarshalIndent(properties, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case formatYaml:
		data, err := yaml.Marshal(properties)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tLINKED\tFLAGS\tMIN\tMAX\tDEFAULT")
	for _, p := range properties {
		linked := p.LinkedClass
		if p.LinkedType.Valid() {
			linked = p.LinkedType.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, p.Type, dash(linked), dash(flags(p)), value(p.Min), value(p.Max), value(p.Default))
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (s *Shell) processCount(args []string) (string, error) {
	tombstones := false
	if n := len(args); n > 0 && args[n-1] == "tombstones" {
		tombstones = true
		args = args[:n-1]
	}
	if len(args) == 0 {
		return "", errors.New("usage: .count <cluster>... [tombstones]")
	}

	clusters := make([]int16, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 16)
		if err != nil {
			return "", errors.Errorf("invalid cluster id %q", arg)
		}
		clusters[i] = int16(id)
	}

	count, err := s.db.Count(clusters, tombstones)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(count, 10), nil
}

func (s *Shell) processHelp() string {
	lines := []string{
		".classes                         list classes",
		".describe <class>                show the properties of a class",
		".count <cluster>... [tombstones] count the records of clusters",
		".help                            show this message",
		"",
	}
	return strings.Join(append(lines, ddl.Syntax()...), "\n")
}

func flags(p ddl.Property) string {
	var names []string
	if p.Mandatory {
		names = append(names, "mandatory")
	}
	if p.Readonly {
		names = append(names, "readonly")
	}
	if p.NotNull {
		names = append(names, "notnull")
	}
	if p.Unsafe {
		names = append(names, "unsafe")
	}
	if p.Collate != "" {
		names = append(names, "collate="+p.Collate)
	}
	if p.Regex != "" {
		names = append(names, "regex="+p.Regex)
	}
	return strings.Join(names, ",")
}

func value(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
