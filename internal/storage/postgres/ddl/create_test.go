package ddl

import (
	"testing"

	"bqtarget/internal/schema"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{Name: "id", Type: "integer", Mode: schema.ModeRequired},
		{Name: "name", Type: schema.TypeString, Mode: schema.ModeNullable},
		{Name: "updated_at", Type: schema.TypeTimestamp, Mode: schema.ModeNullable},
		{Name: "tags", Type: schema.TypeRecord, Mode: schema.ModeRepeated},
	}
	got, err := BuildCreateTableSQL("raw", "users", fields)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE \"raw\".\"users\" (\n" +
		"  \"id\" BIGINT NOT NULL,\n" +
		"  \"name\" TEXT,\n" +
		"  \"updated_at\" TIMESTAMPTZ,\n" +
		"  \"tags\" JSONB\n" +
		");"
	if got != want {
		t.Fatalf("SQL mismatch:\n got: %q\nwant: %q", got, want)
	}

	if _, err := BuildCreateTableSQL("raw", "empty", nil); err == nil {
		t.Fatalf("expected error for table without columns")
	}
}

func TestCreateSchemaSQL(t *testing.T) {
	t.Parallel()

	if got, want := CreateSchemaSQL(`we"ird`), `CREATE SCHEMA "we""ird"`; got != want {
		t.Fatalf("CreateSchemaSQL = %q, want %q", got, want)
	}
}
