// Package migrations holds the embedded schema scripts and the runner that
// applies them. Every statement is idempotent, so scripts can be re-run in
// any order against an already-migrated database without a ledger.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/freightdesk-api/internal/models"
)

//go:embed sql/*.sql
var scriptFS embed.FS

// Dialect selects the DDL fragments substituted into scripts.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectFor maps a database/sql driver name to a dialect.
func DialectFor(driverName string) (Dialect, error) {
	switch driverName {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("no migration dialect for driver %q", driverName)
	}
}

func (d Dialect) placeholders() map[string]string {
	switch d {
	case DialectPostgres:
		return map[string]string{"{{PK}}": "BIGSERIAL PRIMARY KEY"}
	default:
		return map[string]string{"{{PK}}": "INTEGER PRIMARY KEY AUTOINCREMENT"}
	}
}

// Script is one embedded migration file.
type Script struct {
	Name string
	Body string
}

// Scripts returns the embedded scripts sorted by file name.
func Scripts() ([]Script, error) {
	entries, err := fs.ReadDir(scriptFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("read embedded scripts: %w", err)
	}
	scripts := make([]Script, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		body, err := scriptFS.ReadFile(path.Join("sql", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read script %s: %w", entry.Name(), err)
		}
		scripts = append(scripts, Script{Name: entry.Name(), Body: string(body)})
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	return scripts, nil
}

// Runner applies scripts to a database.
type Runner struct {
	db      *sqlx.DB
	dialect Dialect
	logger  *zap.Logger
}

// NewRunner builds a runner for the database's driver.
func NewRunner(db *sqlx.DB, logger *zap.Logger) (*Runner, error) {
	dialect, err := DialectFor(db.DriverName())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, dialect: dialect, logger: logger}, nil
}

// Run executes all scripts, or only those whose name starts with one of the
// given prefixes. Each script runs inside its own transaction.
func (r *Runner) Run(ctx context.Context, only ...string) error {
	scripts, err := Scripts()
	if err != nil {
		return err
	}
	ran := 0
	for _, script := range scripts {
		if !selected(script.Name, only) {
			continue
		}
		if err := r.apply(ctx, script); err != nil {
			return err
		}
		ran++
	}
	if len(only) > 0 && ran == 0 {
		return fmt.Errorf("no migration matches %s", strings.Join(only, ", "))
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, script Script) (err error) {
	start := time.Now()
	statements := SplitStatements(Render(script.Body, r.dialect))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", script.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s statement %d: %w", script.Name, i+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", script.Name, err)
	}

	r.logger.Info("migration applied",
		zap.String("script", script.Name),
		zap.Int("statements", len(statements)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// EnsureAdmin inserts a SUPERADMIN account unless the email already exists.
// It reports whether a row was created.
func (r *Runner) EnsureAdmin(ctx context.Context, email, password, fullName string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, fmt.Errorf("admin email and password are required")
	}
	if fullName == "" {
		fullName = "Administrator"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	now := time.Now().UTC()
	query := r.db.Rebind(`INSERT INTO users (email, password_hash, full_name, role, active, created_at, updated_at)
VALUES (?, ?, ?, ?, TRUE, ?, ?)
ON CONFLICT (email) DO NOTHING`)
	res, err := r.db.ExecContext(ctx, query, email, string(hash), fullName, models.RoleSuperAdmin, now, now)
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bootstrap admin rows: %w", err)
	}
	if affected > 0 {
		r.logger.Info("bootstrap admin created", zap.String("email", email))
	}
	return affected > 0, nil
}

// Render substitutes dialect placeholders.
func Render(body string, dialect Dialect) string {
	for key, value := range dialect.placeholders() {
		body = strings.ReplaceAll(body, key, value)
	}
	return body
}

// SplitStatements breaks a script on semicolons outside quoted strings and
// drops line comments and empty statements.
func SplitStatements(body string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)
	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case inQuote:
			current.WriteByte(ch)
			if ch == '\'' {
				inQuote = false
			}
		case ch == '\'':
			inQuote = true
			current.WriteByte(ch)
		case ch == '-' && i+1 < len(body) && body[i+1] == '-':
			for i < len(body) && body[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

func selected(name string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, prefix := range only {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
