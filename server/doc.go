// Package server exposes the marketplace over HTTP: the buyer chat
// endpoint, direct catalog search and lookup, and the inquiry
// lifecycle endpoints used by vendor-side tooling.
package server
