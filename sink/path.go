package sink

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Token prefixes recognized at the start of a user-provided sink path,
// per §6. <cout>/<clog>/<cerr> name the process's standard streams, but
// ResolveDir does not expand them: a path beginning with one of them is
// returned cleaned and otherwise unchanged, like a path with no token.
const (
	TokenTemp    = "<temp>"
	TokenHome    = "<home>"
	TokenCurrent = "<current>"
	TokenStdout  = "<cout>"
	TokenStderr  = "<clog>"
	TokenStderr2 = "<cerr>"
)

// ResolveDir expands a leading directory token and canonicalizes the
// remainder of path. Paths with no recognized token are returned
// cleaned but otherwise unchanged.
func ResolveDir(path string) (string, error) {
	for token, resolver := range dirTokens {
		if strings.HasPrefix(path, token) {
			base, err := resolver()
			if err != nil {
				return "", fmt.Errorf("sink: resolve %s: %w", token, err)
			}

			return filepath.Clean(filepath.Join(base, strings.TrimPrefix(path, token))), nil
		}
	}

	return filepath.Clean(path), nil
}

var dirTokens = map[string]func() (string, error){
	TokenTemp: func() (string, error) { return os.TempDir(), nil },
	TokenHome: func() (string, error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}

		return home, nil
	},
	TokenCurrent: func() (string, error) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}

		return wd, nil
	},
}

// DefaultFilename returns "<program>-<pid>-<4-digit-random>.<ext>", the
// naming scheme for the default sink file and any sink that did not
// receive an explicit filename.
func DefaultFilename(program string, pid int, ext string) string {
	return fmt.Sprintf("%s-%d-%04d.%s", program, pid, rand.Intn(10000), ext)
}
