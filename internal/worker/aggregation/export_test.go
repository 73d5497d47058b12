package aggregation

import "time"

// SetRetryBackoff подменяет паузу между повторами и возвращает функцию восстановления
func SetRetryBackoff(d time.Duration) func() {
	prev := retryBackoff
	retryBackoff = d
	return func() { retryBackoff = prev }
}
