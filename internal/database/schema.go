package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// column carries two definitions. def is used in CREATE TABLE. add is used
// when the column is missing from a live table, where SQLite only accepts
// constant defaults; a nullable add may name a backfill expression for the
// rows already present. An empty add marks a column that cannot be added.
type column struct {
	name     string
	def      string
	add      string
	backfill string
}

type table struct {
	name        string
	columns     []column
	constraints []string
}

type index struct {
	name   string
	on     string
	unique bool
}

var (
	idColumn        = column{"id", "INTEGER PRIMARY KEY AUTOINCREMENT", "", ""}
	createdAtColumn = column{"created_at", "DATETIME DEFAULT CURRENT_TIMESTAMP", "DATETIME", "CURRENT_TIMESTAMP"}
)

// schema is the current shape of the store. Columns may only ever be
// appended; EnsureSchema adds whatever a live table is missing.
var schema = []table{
	{
		name: "users",
		columns: []column{
			idColumn,
			{"username", "TEXT NOT NULL", "TEXT NOT NULL DEFAULT ''", ""},
			// Uniqueness of a late email column comes from idx_users_email.
			{"email", "TEXT UNIQUE NOT NULL", "TEXT", ""},
			{"password", "TEXT NOT NULL", "TEXT NOT NULL DEFAULT ''", ""},
			{"bio", "TEXT DEFAULT ''", "TEXT DEFAULT ''", ""},
			{"preferences", "TEXT", "TEXT", ""},
			createdAtColumn,
		},
	},
	{
		name: "meditation_sessions",
		columns: []column{
			idColumn,
			{"user_id", "INTEGER NOT NULL", "INTEGER NOT NULL DEFAULT 0", ""},
			{"duration", "REAL NOT NULL", "REAL NOT NULL DEFAULT 0", ""},
			{"type", "TEXT", "TEXT", ""},
			{"notes", "TEXT", "TEXT", ""},
			{"date", "DATETIME DEFAULT CURRENT_TIMESTAMP", "DATETIME", "CURRENT_TIMESTAMP"},
		},
		constraints: []string{"FOREIGN KEY (user_id) REFERENCES users(id)"},
	},
	{
		name: "motivational_quotes",
		columns: []column{
			idColumn,
			{"text", "TEXT NOT NULL", "TEXT NOT NULL DEFAULT ''", ""},
		},
	},
	{
		name: "community_posts",
		columns: []column{
			idColumn,
			{"user_id", "INTEGER NOT NULL", "INTEGER NOT NULL DEFAULT 0", ""},
			{"content", "TEXT NOT NULL", "TEXT NOT NULL DEFAULT ''", ""},
			{"likes_count", "INTEGER NOT NULL DEFAULT 0", "INTEGER NOT NULL DEFAULT 0", ""},
			createdAtColumn,
		},
		constraints: []string{"FOREIGN KEY (user_id) REFERENCES users(id)"},
	},
	{
		name: "community_comments",
		columns: []column{
			idColumn,
			{"post_id", "INTEGER NOT NULL", "INTEGER NOT NULL DEFAULT 0", ""},
			{"user_id", "INTEGER NOT NULL", "INTEGER NOT NULL DEFAULT 0", ""},
			{"content", "TEXT NOT NULL", "TEXT NOT NULL DEFAULT ''", ""},
			createdAtColumn,
		},
		constraints: []string{
			"FOREIGN KEY (post_id) REFERENCES community_posts(id)",
			"FOREIGN KEY (user_id) REFERENCES users(id)",
		},
	},
}

var indexes = []index{
	{"idx_users_email", "users(email)", true},
	{"idx_meditation_sessions_user", "meditation_sessions(user_id, date)", false},
	{"idx_community_comments_post", "community_comments(post_id, created_at)", false},
}

// StarterQuotes seed an empty quote collection.
var StarterQuotes = []string{
	"Breathe in peace, breathe out tension.",
	"The present moment is the only moment available to us.",
	"Peace comes from within. Do not seek it without.",
	"Quiet the mind, and the soul will speak.",
	"Meditation is the soul's perspective glass.",
}

// Report lists what EnsureSchema changed.
type Report struct {
	TablesCreated  []string
	ColumnsAdded   []string // table.column
	IndexesCreated []string
	QuotesSeeded   int
}

// Writes is the number of statements that modified the store.
func (r Report) Writes() int {
	return len(r.TablesCreated) + len(r.ColumnsAdded) + len(r.IndexesCreated) + r.QuotesSeeded
}

// EnsureSchema creates missing tables, adds missing columns to existing ones
// and seeds the quote collection when it is empty. Every step checks the
// live schema first, so running it against a current store writes nothing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) (Report, error) {
	var report Report

	for _, t := range schema {
		exists, err := objectExists(ctx, db, "table", t.name)
		if err != nil {
			return report, err
		}

		if !exists {
			if _, err := db.ExecContext(ctx, t.createSQL()); err != nil {
				return report, fmt.Errorf("create table %s: %w", t.name, err)
			}
			report.TablesCreated = append(report.TablesCreated, t.name)
			continue
		}

		added, err := addMissingColumns(ctx, db, t)
		if err != nil {
			return report, err
		}
		report.ColumnsAdded = append(report.ColumnsAdded, added...)
	}

	for _, idx := range indexes {
		exists, err := objectExists(ctx, db, "index", idx.name)
		if err != nil {
			return report, err
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, idx.createSQL()); err != nil {
			return report, fmt.Errorf("create index %s: %w", idx.name, err)
		}
		report.IndexesCreated = append(report.IndexesCreated, idx.name)
	}

	seeded, err := seedQuotes(ctx, db)
	if err != nil {
		return report, err
	}
	report.QuotesSeeded = seeded

	if report.Writes() > 0 {
		log.Info().
			Strs("tables_created", report.TablesCreated).
			Strs("columns_added", report.ColumnsAdded).
			Strs("indexes_created", report.IndexesCreated).
			Int("quotes_seeded", report.QuotesSeeded).
			Msg("Database schema updated")
	}
	return report, nil
}

func (t table) createSQL() string {
	defs := make([]string, 0, len(t.columns)+len(t.constraints))
	for _, c := range t.columns {
		defs = append(defs, c.name+" "+c.def)
	}
	defs = append(defs, t.constraints...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.name, strings.Join(defs, ",\n\t"))
}

func (idx index) createSQL() string {
	kind := "INDEX"
	if idx.unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s", kind, idx.name, idx.on)
}

func objectExists(ctx context.Context, db *sqlx.DB, kind, name string) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name)
	if err != nil {
		return false, fmt.Errorf("inspect %s %s: %w", kind, name, err)
	}
	return n > 0, nil
}

func addMissingColumns(ctx context.Context, db *sqlx.DB, t table) ([]string, error) {
	var live []string
	if err := db.SelectContext(ctx, &live, "SELECT name FROM pragma_table_info(?)", t.name); err != nil {
		return nil, fmt.Errorf("inspect columns of %s: %w", t.name, err)
	}

	present := make(map[string]bool, len(live))
	for _, name := range live {
		present[name] = true
	}

	var added []string
	for _, c := range t.columns {
		if present[c.name] {
			continue
		}
		if c.add == "" {
			return added, fmt.Errorf("column %s.%s cannot be added to an existing table", t.name, c.name)
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", t.name, c.name, c.add)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return added, fmt.Errorf("add column %s.%s: %w", t.name, c.name, err)
		}
		if c.backfill != "" {
			fill := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL", t.name, c.name, c.backfill, c.name)
			if _, err := db.ExecContext(ctx, fill); err != nil {
				return added, fmt.Errorf("backfill column %s.%s: %w", t.name, c.name, err)
			}
		}
		added = append(added, t.name+"."+c.name)
	}
	return added, nil
}

func seedQuotes(ctx context.Context, db *sqlx.DB) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM motivational_quotes"); err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, text := range StarterQuotes {
		if _, err := tx.ExecContext(ctx, "INSERT INTO motivational_quotes (text) VALUES (?)", text); err != nil {
			return 0, fmt.Errorf("seed quote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(StarterQuotes), nil
}
