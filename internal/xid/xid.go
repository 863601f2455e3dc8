package xid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// New returns a prefixed unique id of the form prefix-millis-random. The
// random tail keeps ids from colliding when two are minted in the same
// millisecond.
func New(prefix string) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%x", prefix, time.Now().UnixMilli(), buf)
}
