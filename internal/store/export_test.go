package store

import (
	"os"
	"time"
)

// Test hooks for the CSVStore fault-injection points.

func SetWriteFileForTest(s *CSVStore, fn func(name string, data []byte, perm os.FileMode) error) {
	s.writeFile = fn
}

func SetRetryDelayForTest(s *CSVStore, d time.Duration) {
	s.retryDelay = d
}
