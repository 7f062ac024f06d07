package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReferenceCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := NewReferenceCode()
		assert.Regexp(t, refCodePattern, code)
		seen[code] = true
	}
	// 100 draws from a 36^10 keyspace colliding would point at a broken generator.
	assert.Len(t, seen, 100)
}
