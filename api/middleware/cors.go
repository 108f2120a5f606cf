package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The POS UI is served from the local machine; remote origins are only the
// hosted admin console.
var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://admin.pharmacare.app",
}

// CORS returns middleware that applies the API's allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
