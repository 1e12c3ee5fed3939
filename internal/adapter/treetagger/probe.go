package treetagger

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"tagchain/internal/domain"
)

// BinaryName is the TreeTagger executable, found under <tagdir>/bin or on PATH.
const BinaryName = "tree-tagger"

// Probe looks for the TreeTagger binary once, at startup. tagDir may be
// empty when no install directory could be resolved; PATH is still searched.
func Probe(tagDir string) domain.Availability {
	var tried []string

	if tagDir != "" {
		candidate := filepath.Join(tagDir, "bin", BinaryName)
		if isExecutable(candidate) {
			return domain.Availability{Available: true, Binary: candidate}
		}
		tried = append(tried, candidate)
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		return domain.Availability{Available: true, Binary: path}
	}
	tried = append(tried, "$PATH")

	return domain.Availability{
		Available:  false,
		Diagnostic: fmt.Sprintf("%s not found (looked in %v)", BinaryName, tried),
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}
