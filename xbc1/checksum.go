package xbc1

// Checksum computes the format's 32-bit digest: the sum of all bytes,
// truncated to 32 bits. Containers store it over the decompressed content.
func Checksum(b []byte) uint32 {
	var sum uint32
	for _, c := range b {
		sum += uint32(c)
	}
	return sum
}
