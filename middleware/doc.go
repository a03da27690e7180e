// Package middleware collects wsforge.Middleware implementations that wire
// the domain stack's third-party dependencies into the dispatch pipeline:
// RequestID (uuid), SanitizeText (bluemonday), BearerAuth (golang-jwt),
// AuditLog (lib/pq), and RedisRateLimiter (go-redis). None of these are
// required for core operation — a Router works with zero middleware
// installed.
package middleware
