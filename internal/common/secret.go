package common

// WipeByteArray overwrites b with zeros so a password does not linger in
// memory after use. A nil slice is ignored.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
