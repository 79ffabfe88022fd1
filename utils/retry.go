package utils

import (
	"fmt"
	"time"
)

// Retry runs fn up to attempts times with exponential back-off, logging each
// failed attempt. Meant for startup-time operations such as waiting for the
// database to accept connections; crawl-time fetches are never retried.
func Retry(logger *Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := baseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				name, attempt, attempts, lastErr, delay)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
