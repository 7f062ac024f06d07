package registration

import "crypto/rand"

const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 10
)

// NewReferenceCode returns a 10-character code drawn from the uppercase
// alphanumeric alphabet. Uniqueness against existing records is not checked;
// the 36^10 keyspace makes collisions negligible at expected volume.
func NewReferenceCode() string {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is in no state to serve.
		panic("reference code: " + err.Error())
	}
	out := make([]byte, referenceLength)
	for i, b := range buf {
		out[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(out)
}
