package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func migrationNames(t *testing.T, dialect string) map[string]string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", dialect, "*.sql"))
	if err != nil {
		t.Fatalf("glob %s migrations: %v", dialect, err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration files found", dialect)
	}

	names := map[string]string{}
	for _, path := range matches {
		names[filepath.Base(path)] = path
	}
	return names
}

func TestDialectMigrationsStayInStep(t *testing.T) {
	pg := migrationNames(t, "postgres")
	lite := migrationNames(t, "sqlite")

	for name := range pg {
		if _, ok := lite[name]; !ok {
			t.Errorf("postgres migration %s has no sqlite counterpart", name)
		}
	}
	for name := range lite {
		if _, ok := pg[name]; !ok {
			t.Errorf("sqlite migration %s has no postgres counterpart", name)
		}
	}
}

func TestSQLiteMigrationsAvoidPostgresDDL(t *testing.T) {
	forbidden := []string{"TEXT[]", "ARRAY[", "::", "now()", "TIMESTAMPTZ"}

	for name, path := range migrationNames(t, "sqlite") {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		content := string(data)
		for _, token := range forbidden {
			if strings.Contains(content, token) {
				t.Errorf("%s contains postgres-only DDL %q", name, token)
			}
		}
	}
}

func TestInitSchemaContainsCoreTables(t *testing.T) {
	checks := []string{
		"CREATE TABLE advertisers",
		"CREATE TABLE plans",
		"CREATE TABLE subscriptions",
		"CREATE TABLE invoices",
		"CREATE TABLE payments",
		"CREATE TABLE invoice_counters",
		"CREATE TABLE reconciliation_logs",
		"CREATE UNIQUE INDEX idx_invoices_number ON invoices (number)",
		"CHECK (amount > 0)",
		"CHECK (end_date >= start_date)",
	}

	for _, dialect := range []string{"postgres", "sqlite"} {
		names := migrationNames(t, dialect)
		path, ok := names["20260301000001_init_schema.sql"]
		if !ok {
			t.Fatalf("no %s init schema migration found", dialect)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		content := string(data)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s init schema missing %q", dialect, sub)
			}
		}
	}
}
