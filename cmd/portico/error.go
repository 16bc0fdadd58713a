package main

import (
	"log/slog"
	"net/http"
)

const badGatewayError = `<!doctype html>
<html lang="en">
<head>
  <title>502 Bad Gateway</title>
</head>
<body>
  <h1>Bad Gateway</h1>
  <p>The server was unable to complete your request. Please try again later.</p>
</body>
</html>`

const notFoundError = `<!doctype html>
<html lang="en">
<head>
  <title>404 Not Found</title>
</head>
<body>
  <h1>Not Found</h1>
  <p>The page you requested could not be found.</p>
</body>
</html>`

// handleError handles a route not being able to connect to its upstream.
func handleError(writer http.ResponseWriter, request *http.Request, err error) {
	slog.Warn("Failed to proxy request", "path", request.URL.Path, "error", err)
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(http.StatusBadGateway)
	_, _ = writer.Write([]byte(badGatewayError))
}

// handleNotFound is the terminal pipeline stage for requests nothing else
// claimed.
func handleNotFound(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(http.StatusNotFound)
	_, _ = writer.Write([]byte(notFoundError))
}
