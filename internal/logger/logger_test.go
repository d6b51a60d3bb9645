package logger

import "testing"

func TestNewIncludesServiceName(t *testing.T) {
	log := New("memberdb-test")
	// Smoke check: the logger must be usable without panicking.
	log.Info().Msg("logger constructed")
}
