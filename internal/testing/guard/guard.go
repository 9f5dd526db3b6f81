package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("KEYGATE_TEST_MODE") == "" {
			_ = os.Setenv("KEYGATE_TEST_MODE", "1")
		}
	})
}
