// Package fetch downloads remote image assets over HTTP.
//
// Client uses the fiber HTTP agent with per-request timeouts, a configurable
// user agent and referer, a response size cap, and a small retry budget for
// rate limiting, server errors and network failures. It satisfies the
// assets.Fetcher interface.
package fetch
