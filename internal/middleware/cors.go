package middleware

import (
	"net/http"

	"github.com/wheelscan/go-wheel-trainer/internal/utils"
)

// CORSMiddleware allows the capture UI at origin to call the API. Preflight
// requests are answered directly.
func CORSMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = utils.CORSAllowOriginAll
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(utils.HeaderAccessControlAllowOrigin, origin)
			h.Set(utils.HeaderAccessControlAllowMethods, utils.CORSAllowMethodsAll)
			h.Set(utils.HeaderAccessControlAllowHeaders, utils.CORSAllowHeadersStd)
			h.Set(utils.HeaderAccessControlExposeHeaders, utils.CORSExposeHeadersStd)
			if origin != utils.CORSAllowOriginAll {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
