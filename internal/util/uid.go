// Package util provides small shared helpers.
package util

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// GenUUID generates a new RFC 4122 UUID string.
func GenUUID() string {
	return uuid.NewString()
}

// GenShortUID generates a compact, URL-safe unique identifier for row UIDs.
func GenShortUID() string {
	return shortuuid.New()
}
