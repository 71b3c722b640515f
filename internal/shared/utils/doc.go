// Package utils holds request field validation shared by the HTTP handlers.
package utils
