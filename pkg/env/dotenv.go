package env

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDir loads dir/.env, if present.
func LoadFromDir(dir string) ([]string, error) {
	return Load(filepath.Join(dir, ".env"))
}

// Load sets the variables of a dotenv file that are not already present in the
// process environment and returns the names it set. A missing file is not an
// error.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var set []string
	for _, kv := range vars {
		if _, exists := os.LookupEnv(kv[0]); exists {
			continue
		}
		if err := os.Setenv(kv[0], kv[1]); err != nil {
			return set, err
		}
		set = append(set, kv[0])
	}
	return set, nil
}

// Parse reads KEY=VALUE pairs in file order. Blank lines, comments and lines
// without '=' are skipped. Values may be single- or double-quoted; double
// quotes understand \n and \" escapes. Unquoted values end at " #".
func Parse(r io.Reader) ([][2]string, error) {
	var out [][2]string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out = append(out, [2]string{key, parseValue(strings.TrimSpace(val))})
	}
	return out, scanner.Err()
}

func parseValue(val string) string {
	if len(val) >= 2 {
		switch q := val[0]; {
		case q == '\'' && val[len(val)-1] == '\'':
			return val[1 : len(val)-1]
		case q == '"' && val[len(val)-1] == '"':
			r := strings.NewReplacer(`\n`, "\n", `\"`, `"`, `\\`, `\`)
			return r.Replace(val[1 : len(val)-1])
		}
	}
	if i := strings.Index(val, " #"); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	return val
}
