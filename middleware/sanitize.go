package middleware

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/wsforge-go/wsforge"
)

// SanitizeText strips HTML from inbound Text payloads before they reach the
// handler, using bluemonday's strict policy (no tags survive). Binary and
// control frames pass through untouched. Used by the chat example so one
// client can't inject markup another client's UI would render.
func SanitizeText() wsforge.Middleware {
	policy := bluemonday.StrictPolicy()
	return func(ctx *wsforge.Context, next wsforge.Next) (wsforge.Response, error) {
		if text, ok := ctx.Message.Text(); ok {
			ctx.Message = wsforge.NewText(policy.Sanitize(text))
		}
		return next(ctx)
	}
}
