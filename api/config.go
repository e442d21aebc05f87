// Package api provides the HTTP server for ingesting images and querying
// the vector store.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}

// ErrorResponse is the JSON body returned on handler errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
