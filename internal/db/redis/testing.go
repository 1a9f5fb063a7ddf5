package redis

import (
	"strconv"

	"github.com/redis/rueidis"
)

// NewStoreForTest creates a Store with the provided rueidis client and
// deterministic IDs id-1, id-2, ... (test-only).
func NewStoreForTest(c rueidis.Client) *Store {
	s := newStore(c, DefaultKeyPrefix, "http://blobs.local")
	n := 0
	s.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	return s
}
