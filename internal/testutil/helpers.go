package testutil

import (
	"crypto/md5"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// MiB is one mebibyte.
const MiB = 1024 * 1024

// GenerateRandomData generates random bytes of the specified size.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GeneratePatternData generates size bytes where every byte encodes its offset,
// so a misplaced slice is visible when comparing part bodies.
func GeneratePatternData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// GenerateTestKey generates a test object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	timestamp := time.Now().UnixNano()
	random := rand.Int63n(100000)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%d-%d", prefix, timestamp, random)
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateMultipartETag computes the ETag S3 reports for an object assembled
// from parts of the given size: the MD5 of the concatenated part MD5s, suffixed
// with the part count.
func CalculateMultipartETag(data []byte, partSize int) string {
	var digests []byte
	count := 0
	for off := 0; off < len(data); off += partSize {
		end := off + partSize
		if end > len(data) {
			end = len(data)
		}
		sum := md5.Sum(data[off:end])
		digests = append(digests, sum[:]...)
		count++
	}
	return fmt.Sprintf(`"%x-%d"`, md5.Sum(digests), count)
}
