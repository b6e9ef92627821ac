package middleware

import (
	"context"
	"net"
	"net/http"
)

const peerKey contextKey = "peer"

// Peer records the transport peer address before RealIP rewrites
// RemoteAddr from client-supplied headers.
func Peer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PeerHost returns the host of the address recorded by Peer, falling back
// to RemoteAddr.
func PeerHost(r *http.Request) string {
	addr, ok := r.Context().Value(peerKey).(string)
	if !ok {
		addr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
