package hash

// HashMany hashes every n[i] with the same salt into out[i]. The solver calls
// it once per candidate salt, so it must not allocate.
func HashMany(out []uint32, n []uint32, salt uint32, max uint32) {
	for i := range out {
		out[i] = Hash(n[i], salt, max)
	}
}
