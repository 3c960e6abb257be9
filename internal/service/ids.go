package service

import (
	"github.com/oklog/ulid/v2"
)

// newID returns a sortable identifier for embedded documents and object keys
func newID() string {
	return ulid.Make().String()
}
