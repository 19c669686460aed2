package shell_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/go-ddl"
	"github.com/canonical/go-ddl/internal/shell"
	"github.com/canonical/go-ddl/logging"
)

func TestShell_Exec(t *testing.T) {
	sh := newShell(t)
	ctx := context.Background()

	result, err := sh.Process(ctx, "CREATE PROPERTY Person.name STRING (mandatory)")
	require.NoError(t, err)
	assert.Equal(t, "1 properties", result)

	_, err = sh.Process(ctx, "CREATE PROPERTY Nobody.name STRING")
	assert.EqualError(t, err, "class Nobody not found (offset 15)")
}

func TestShell_Blank(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "", result)
}

func TestShell_Classes(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), ".classes")
	require.NoError(t, err)
	assert.Equal(t, "Company\nPerson", result)
}

func TestShell_Describe(t *testing.T) {
	sh := newShell(t)
	ctx := context.Background()

	_, err := sh.Process(ctx, "CREATE PROPERTY Person.name STRING (mandatory, max 32)")
	require.NoError(t, err)
	_, err = sh.Process(ctx, "CREATE PROPERTY Person.friends LINKSET Person")
	require.NoError(t, err)

	result, err := sh.Process(ctx, ".describe person")
	require.NoError(t, err)

	lines := strings.Split(result, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "TYPE", "LINKED", "FLAGS", "MIN", "MAX", "DEFAULT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"name", "STRING", "-", "mandatory", "-", "32", "-"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"friends", "LINKSET", "Person", "-", "-", "-", "-"}, strings.Fields(lines[2]))

	_, err = sh.Process(ctx, ".describe Nobody")
	assert.EqualError(t, err, "class Nobody not found")

	_, err = sh.Process(ctx, ".describe")
	assert.EqualError(t, err, "usage: .describe <class>")
}

func TestShell_DescribeJson(t *testing.T) {
	sh := newShell(t, shell.WithFormat("json"))
	ctx := context.Background()

	_, err := sh.Process(ctx, "CREATE PROPERTY Person.age INTEGER (min 0)")
	require.NoError(t, err)

	result, err := sh.Process(ctx, ".describe Person")
	require.NoError(t, err)

	var properties []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result), &properties))
	require.Len(t, properties, 1)
	assert.Equal(t, "age", properties[0]["name"])
	assert.Equal(t, "INTEGER", properties[0]["type"])
	assert.Equal(t, "0", properties[0]["min"])
}

func TestShell_DescribeYaml(t *testing.T) {
	sh := newShell(t, shell.WithFormat("yaml"))
	ctx := context.Background()

	_, err := sh.Process(ctx, "CREATE PROPERTY Person.name STRING")
	require.NoError(t, err)

	result, err := sh.Process(ctx, ".describe Person")
	require.NoError(t, err)
	assert.Contains(t, result, "name: name")
	assert.Contains(t, result, "type: STRING")
}

func TestShell_Count(t *testing.T) {
	db := newDatabase(t)
	require.NoError(t, db.AddRecords(3, 5, 2))
	require.NoError(t, db.AddRecords(7, 1, 0))

	sh, err := shell.New(db)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		line   string
		result string
	}{
		{".count 3", "5"},
		{".count 3 7", "6"},
		{".count 3 7 tombstones", "8"},
	}
	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			result, err := sh.Process(ctx, c.line)
			require.NoError(t, err)
			assert.Equal(t, c.result, result)
		})
	}

	_, err = sh.Process(ctx, ".count")
	assert.EqualError(t, err, "usage: .count <cluster>... [tombstones]")

	_, err = sh.Process(ctx, ".count x")
	assert.EqualError(t, err, `invalid cluster id "x"`)

	_, err = sh.Process(ctx, ".count 42")
	assert.EqualError(t, err, "cluster 42 not found")
}

func TestShell_Help(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), ".help")
	require.NoError(t, err)
	assert.Contains(t, result, ".describe <class>")
	assert.Contains(t, result, "DROP PROPERTY <class>.<property>")
}

func TestShell_UnknownCommand(t *testing.T) {
	sh := newShell(t)

	_, err := sh.Process(context.Background(), ".tables")
	assert.EqualError(t, err, "unknown command .tables")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := shell.New(newDatabase(t), shell.WithFormat("xml"))
	assert.EqualError(t, err, `unknown format "xml"`)
}

func newShell(t *testing.T, options ...shell.Option) *shell.Shell {
	t.Helper()

	sh, err := shell.New(newDatabase(t), options...)
	require.NoError(t, err)

	return sh
}

func newDatabase(t *testing.T) *ddl.Database {
	t.Helper()

	ctx := context.Background()
	db, err := ddl.New(ctx, ddl.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)

	require.NoError(t, db.CreateClass(ctx, "Person", 3, 7))
	require.NoError(t, db.CreateClass(ctx, "Company", 9))

	return db
}
