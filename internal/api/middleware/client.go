package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// ClientIDHeader identifies a browser across requests
const ClientIDHeader = "X-Client-ID"

const maxClientIDLength = 128

// ClientID returns the caller's identity: the X-Client-ID header when present,
// otherwise the remote host.
func ClientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
		if len(id) > maxClientIDLength {
			id = id[:maxClientIDLength]
		}
		return id
	}
	return RemoteHost(r)
}

// RemoteHost returns the host part of the connection's remote address. Unlike
// ClientID it cannot be chosen by the caller.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type clientIDKey struct{}

// WithClientID stores the caller's identity for handlers that do not see the request.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the identity stored by ClientContext, or "".
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// ClientContext copies ClientID(r) into the request context.
func ClientContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), ClientID(r))))
	})
}
