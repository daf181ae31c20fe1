package report

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"fjacquet/invoice-reconciler/internal/apperror"
	"fjacquet/invoice-reconciler/internal/fileutils"
)

// ReadList reads one entry per line, trimming blanks and skipping empty lines
// and lines starting with #.
func ReadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &apperror.NotFoundError{Path: path, Kind: "list"}
		}
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// ReadOptionalList is ReadList that treats a missing file as an empty list.
func ReadOptionalList(path string) ([]string, error) {
	items, err := ReadList(path)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return items, err
}

// WriteList writes one entry per line, replacing path atomically.
func WriteList(path string, items []string) error {
	var buf bytes.Buffer
	for _, it := range items {
		buf.WriteString(it)
		buf.WriteByte('\n')
	}
	return fileutils.AtomicWrite(path, buf.Bytes())
}
