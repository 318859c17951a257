package server

import (
	"log"
	"net/http"

	"github.com/charonlabs/charon/pkg/api/http/common"
)

// loggingMiddleware shims in a handler middleware that logs requests,
// including the proof header's presence (never its value).
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasProof := r.Header.Get(common.HEADER_PAYMENT) != ""
		log.Println("[API]", r.Method, r.RequestURI, r.ContentLength, "proof:", hasProof)
		next.ServeHTTP(w, r)
	})
}
