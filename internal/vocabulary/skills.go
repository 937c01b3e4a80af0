package vocabulary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LoadSkills reads the skills CSV at path. See ReadSkills.
func LoadSkills(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open skills file %q: %w", path, err)
	}
	defer f.Close()

	skills, err := ReadSkills(f, limit)
	if err != nil {
		return nil, fmt.Errorf("read skills file %q: %w", path, err)
	}
	return skills, nil
}

// ReadSkills returns the first column of a CSV with a header row. Values are
// trimmed and deduplicated in order of first appearance; values shorter than
// two characters or made of digits only are dropped. A positive limit caps the
// number of data rows read.
func ReadSkills(r io.Reader, limit int) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	seen := make(map[string]struct{})
	var skills []string
	for rows := 0; limit <= 0 || rows < limit; rows++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rows+2, err)
		}
		if len(record) == 0 {
			continue
		}

		skill := strings.TrimSpace(record[0])
		if !validSkill(skill) {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		skills = append(skills, skill)
	}
	return skills, nil
}

func validSkill(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
