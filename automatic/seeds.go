package automatic

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"lukechampine.com/frand"
)

// Seeds make autoplay reproducible: game i of a run seeded from a file deals
// exactly the same hands every time.

// GenerateSeeds creates n random 32-byte seeds.
func GenerateSeeds(n int) [][32]byte {
	seeds := make([][32]byte, n)
	for i := range seeds {
		frand.Read(seeds[i][:])
	}
	return seeds
}

func encodeSeed(seed [32]byte) string {
	return base64.RawURLEncoding.EncodeToString(seed[:])
}

func decodeSeed(s string) ([32]byte, error) {
	var seed [32]byte
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return seed, err
	}
	if len(decoded) != len(seed) {
		return seed, fmt.Errorf("seed is %d bytes, expected %d", len(decoded), len(seed))
	}
	copy(seed[:], decoded)
	return seed, nil
}

// SaveSeeds writes seeds to path, one base64 seed per line.
func SaveSeeds(seeds [][32]byte, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString("# blockgrid autoplay seeds, one per game\n"); err != nil {
		return err
	}
	for _, seed := range seeds {
		if _, err := w.WriteString(encodeSeed(seed) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadSeeds reads a file written by SaveSeeds. Blank lines and lines
// starting with # are skipped.
func LoadSeeds(path string) ([][32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	var seeds [][32]byte
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seed, err := decodeSeed(line)
		if err != nil {
			return nil, fmt.Errorf("seed at line %d: %w", lineNum, err)
		}
		seeds = append(seeds, seed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}
	return seeds, nil
}
