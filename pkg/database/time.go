package database

import (
	"time"
)

// timeNow is a var so tests can pin the clock.
var timeNow = func() int64 {
	return time.Now().Unix()
}
