// Package device holds the registry of authorized client devices.
//
// The registry is loaded once at process startup from a plain-text file,
// one device per line:
//
//	<sha256-hex-digest> <label>
//
// The digest is the SHA-256 of the device's bearer token; the raw token
// never appears in the file or anywhere else in the process. After load
// the registry is immutable and safe for concurrent lookups from any
// number of request goroutines.
package device
