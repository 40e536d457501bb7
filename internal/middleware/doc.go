// Package middleware provides HTTP middleware for the photo library server.
//
// It includes:
//   - Request ids, generated with google/uuid unless the client sends one
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip) for JSON and NDJSON, flush-aware so
//     streamed library chunks still reach the client one by one
//   - Prometheus request metrics labelled by route template
package middleware
