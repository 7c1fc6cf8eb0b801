package hash

import "github.com/spaolacci/murmur3"

// Hash returns the hash value of data.
func Hash(data []byte) uint64 {
	return murmur3.Sum64(data)
}
