package stack

import (
	"net/http"

	"github.com/go-chi/cors"
)

var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// Options turns the declared CORS policy into router middleware options.
func (c CORS) Options() cors.Options {
	methods := c.AllowMethods
	for _, m := range c.AllowMethods {
		if m == MethodAny {
			methods = allMethods
			break
		}
	}
	return cors.Options{
		AllowedOrigins: c.AllowOrigins,
		AllowedMethods: methods,
		AllowedHeaders: c.AllowHeaders,
		MaxAge:         300,
	}
}
