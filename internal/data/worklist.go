// internal/data/worklist.go
package data

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// LoadWorklist reads the day's code list at path: one code per line, blank
// lines and #-comments ignored, duplicates collapsed keeping the first
// occurrence's position.
func LoadWorklist(fsys afero.Fs, path string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("data")

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read work list %s: %w", path, err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	var codes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		codes = append(codes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read work list %s: %w", path, err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("work list %s holds no codes", path)
	}
	log.Info("Work list ready.", zap.Int("codes", len(codes)), zap.String("path", path))
	return codes, nil
}
