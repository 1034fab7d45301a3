// Package task runs periodic maintenance in the background: removing authors
// that no longer have books and purging refresh tokens past their expiry.
package task
