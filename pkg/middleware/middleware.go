// Package middleware contains HTTP middleware shared by the service routers.
package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler
