// Package transport builds the HTTP clients used to reach the forum.
//
// A client can talk to the forum directly or through a SOCKS5 proxy, either
// one the operator already runs or an embedded Tor daemon started with
// tornago. Configured cookies and headers are injected into every request,
// redirects included.
package transport
