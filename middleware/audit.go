package middleware

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/wsforge-go/wsforge"
	"github.com/wsforge-go/wsforge/logger"
)

// AuditLog persists one row per dispatch to Postgres: connection id, the
// message's leading route token ("<default>" when the message is not Text
// starting with "/"; the token is recorded whether or not a route is
// registered for it), whether the handler failed, and the error kind/detail
// if so. Grounded on the teacher's audit log handler/schema
// (api/internal/handlers/audit.go), trimmed to the columns this domain has.
type AuditLog struct {
	db *sql.DB
}

// NewAuditLog opens dsn and verifies the wsforge_audit_log table exists, creating it
// if not. A Postgres outage degrades to logged warnings rather than failing
// dispatch — the audit sink is an optional side-channel per SPEC_FULL.md.
func NewAuditLog(dsn string) (*AuditLog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(createAuditTableSQL); err != nil {
		return nil, err
	}
	return &AuditLog{db: db}, nil
}

const createAuditTableSQL = `
CREATE TABLE IF NOT EXISTS wsforge_audit_log (
	id SERIAL PRIMARY KEY,
	conn_id TEXT NOT NULL,
	route TEXT NOT NULL,
	failed BOOLEAN NOT NULL,
	error_kind TEXT,
	error_detail TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
)`

// Middleware runs the dispatch, then records one audit row. It never fails
// the dispatch itself on an audit-write error, only logs it.
func (a *AuditLog) Middleware() wsforge.Middleware {
	return func(ctx *wsforge.Context, next wsforge.Next) (wsforge.Response, error) {
		resp, err := next(ctx)
		a.record(ctx, err)
		return resp, err
	}
}

func (a *AuditLog) record(ctx *wsforge.Context, dispatchErr error) {
	route := routeKey(ctx.Message)

	var kind, detail string
	failed := dispatchErr != nil
	if werr, ok := dispatchErr.(*wsforge.Error); ok {
		kind = werr.Kind.String()
		detail = werr.Detail
	} else if dispatchErr != nil {
		detail = dispatchErr.Error()
	}

	_, err := a.db.Exec(
		`INSERT INTO wsforge_audit_log (conn_id, route, failed, error_kind, error_detail, recorded_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ctx.Conn.ID()), route, failed, kind, detail, time.Now(),
	)
	if err != nil {
		logger.Dispatch().Warn().Err(err).Msg("audit log: insert failed")
	}
}

func routeKey(msg wsforge.Message) string {
	text, ok := msg.Text()
	if !ok || !strings.HasPrefix(text, "/") {
		return "<default>"
	}
	if idx := strings.IndexAny(text, " \t\r\n"); idx >= 0 {
		return text[:idx]
	}
	return text
}

// Close releases the underlying database handle.
func (a *AuditLog) Close() error { return a.db.Close() }
