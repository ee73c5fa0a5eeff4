package generator

import (
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"strconv"

	"github.com/mainbong/storage_fixtures/internal/config"
)

// Kind is the content kind of a generated file
type Kind string

const (
	KindText   Kind = "text"
	KindBinary Kind = "binary"
)

// TextAlphabet is the set of bytes text payloads are drawn from
const TextAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 \n"

var textBytes [256]bool

func init() {
	for i := 0; i < len(TextAlphabet); i++ {
		textBytes[TextAlphabet[i]] = true
	}
}

var namePattern = regexp.MustCompile(`^test_file_(\d+)_(\d{4})\.txt$`)

// IntBetween returns a uniform integer in [min, max]
func IntBetween(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// FileName returns test_file_<index>_<suffix>.txt with a random four-digit
// suffix. Names are not checked for uniqueness.
func FileName(rng *rand.Rand, index int) string {
	suffix := IntBetween(rng, config.MinNameSuffix, config.MaxNameSuffix)
	return fmt.Sprintf("test_file_%d_%d.txt", index, suffix)
}

// ParseFileName extracts the index and suffix from a generated file name
func ParseFileName(name string) (index, suffix int, ok bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	suffix, _ = strconv.Atoi(m[2])
	return index, suffix, true
}

// ChooseKind draws once against the text probability
func ChooseKind(rng *rand.Rand, textProbability float64) Kind {
	if rng.Float64() < textProbability {
		return KindText
	}
	return KindBinary
}

// TextContent returns size bytes drawn uniformly from TextAlphabet
func TextContent(rng *rand.Rand, size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = TextAlphabet[rng.Intn(len(TextAlphabet))]
	}
	return buf
}

// BinaryContent reads exactly size bytes from entropy
func BinaryContent(entropy io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return buf, nil
}

// IsText reports whether every byte of data is in TextAlphabet
func IsText(data []byte) bool {
	for _, b := range data {
		if !textBytes[b] {
			return false
		}
	}
	return true
}
