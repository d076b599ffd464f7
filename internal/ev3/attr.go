package ev3

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// DefaultRoot is where ev3dev exposes device classes.
const DefaultRoot = "/sys/class"

func readAttr(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read %s", name)
	}
	return strings.TrimSpace(string(data)), nil
}

func readIntAttr(dir, name string) (int, error) {
	s, err := readAttr(dir, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse %s", name)
	}
	return v, nil
}

func writeAttr(dir, name, value string) error {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open %s", name)
	}
	defer f.Close()

	if _, err := f.WriteString(value); err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s", name)
	}
	return nil
}

// findDevice returns the first directory in class whose attributes satisfy
// match.
func findDevice(root, class string, match func(dir string) bool) (string, bool) {
	entries, err := os.ReadDir(filepath.Join(root, class))
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		dir := filepath.Join(root, class, entry.Name())
		if match(dir) {
			return dir, true
		}
	}
	return "", false
}
