package ddl

import (
	"testing"

	"bqtarget/internal/schema"
)

// TestQuoteIdent verifies bracket quoting and escaping of closing brackets.
func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"simple", "[simple]"},
		{"brack]et", "[brack]]et]"},
		{`weird]]name`, `[weird]]]]name]`},
	}
	for _, tc := range cases {
		if got := QuoteIdent(tc.in); got != tc.want {
			t.Fatalf("QuoteIdent(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

// TestQuoteFQN verifies multi-part names are quoted segment by segment.
func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"table", "[table]"},
		{"dbo.table", "[dbo].[table]"},
		{"sales..table", "[sales].[table]"},
	}
	for _, tc := range cases {
		if got := QuoteFQN(tc.in); got != tc.want {
			t.Fatalf("QuoteFQN(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	fields := []schema.Field{
		{Name: "id", Type: "integer", Mode: schema.ModeRequired},
		{Name: "ok", Type: "boolean", Mode: schema.ModeNullable},
		{Name: "at", Type: schema.TypeTimestamp, Mode: schema.ModeNullable},
	}
	got, err := BuildCreateTableSQL("raw", "events", fields)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE [raw].[events] (\n" +
		"  [id] BIGINT NOT NULL,\n" +
		"  [ok] BIT,\n" +
		"  [at] DATETIMEOFFSET\n" +
		");"
	if got != want {
		t.Fatalf("SQL mismatch:\n got: %q\nwant: %q", got, want)
	}

	if _, err := BuildCreateTableSQL("raw", "", fields); err == nil {
		t.Fatalf("expected error for empty table name")
	}
	if got := CreateSchemaSQL("raw"); got != "CREATE SCHEMA [raw]" {
		t.Fatalf("CreateSchemaSQL = %q", got)
	}
}
