// Package remote implements JSON-over-HTTP clients for the backend's auth
// and medical history endpoints.
//
// Every request carries a context and, except for login and register, a
// Bearer access token. Non-2xx responses are mapped onto the sentinel errors
// in errors.go or onto *APIError.
package remote
