package shared

import "context"

type sessionContextKey struct{}

type userIDContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithUserID stores a token-resolved user ID in context.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, id)
}

// CurrentUserID resolves the acting user for the request. Token identities
// take precedence over cookie sessions.
func CurrentUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDContextKey{}).(string); ok && id != "" {
		return id
	}
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.User()
	}
	return ""
}
