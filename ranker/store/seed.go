package store

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

var ErrSeedUnreadable = eris.New("seed list unreadable")

// LoadNames reads one name per line. Blank lines are skipped and repeated
// names keep their first position.
func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrSeedUnreadable, "%s: %v", path, err)
	}
	defer f.Close()

	var names []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n := strings.TrimSpace(sc.Text())
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(ErrSeedUnreadable, "%s: %v", path, err)
	}
	return names, nil
}
