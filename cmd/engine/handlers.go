package main

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/session"
)

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data interface{}) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	if err := json.NewEncoder(ctx).Encode(data); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
	}
}

func errorResponse(ctx *fasthttp.RequestCtx, code int, message string) {
	jsonResponse(ctx, code, map[string]string{"error": message})
}

func (s *server) sessionFromRequest(ctx *fasthttp.RequestCtx) (session.Session, bool) {
	authHeader := string(ctx.Request.Header.Peek("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" && len(s.jwtSecret) > 0 {
		sess, err := session.FromBearerToken(parts[1], s.jwtSecret)
		if err == nil {
			return sess, true
		}
		return session.Session{}, false
	}
	// No auth configured / presented: fall back to the anonymous role, the
	// way an unauthenticated GraphiQL request is handled during local
	// development.
	return session.Session{Role: metadata.Role("anonymous")}, true
}

func (s *server) handleGraphQL(ctx *fasthttp.RequestCtx) {
	var body struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		errorResponse(ctx, fasthttp.StatusBadRequest, "invalid request body")
		return
	}

	sess, ok := s.sessionFromRequest(ctx)
	if !ok {
		errorResponse(ctx, fasthttp.StatusUnauthorized, "invalid or expired token")
		return
	}

	resp, _ := s.eng.Execute(ctx, sess, body.Query, body.OperationName, body.Variables)
	jsonResponse(ctx, fasthttp.StatusOK, resp)
}

func (s *server) handleAdminUsage(ctx *fasthttp.RequestCtx) {
	jsonResponse(ctx, fasthttp.StatusOK, s.eng.CumulativeUsage())
}

// handleAdminReload re-reads the metadata document immediately, bypassing
// the cron schedule and invalidation topic. Exposing this without
// authentication is a deployment-time decision left to whatever reverse
// proxy or service mesh sits in front of the engine.
func (s *server) handleAdminReload(ctx *fasthttp.RequestCtx) {
	if err := s.reload(ctx); err != nil {
		errorResponse(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	s.eng.InvalidateSchemaCache()
	jsonResponse(ctx, fasthttp.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *server) handleHealth(ctx *fasthttp.RequestCtx) {
	jsonResponse(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
