package postprocess

import (
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Fillers []string `yaml:"fillers"`
}

// LoadFillerRules reads a YAML document of the form
//
//	fillers:
//	  - えーと、
//	  - えーと
//
// Entries are NFC-normalized. Order is kept, except that an entry which
// contains another entry is moved ahead of it so comma-attached and longer
// forms still apply first.
func LoadFillerRules(r io.Reader) (FillerRules, error) {
	var f rulesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, err
	}

	seen := map[string]bool{}
	out := make(FillerRules, 0, len(f.Fillers))
	for _, s := range f.Fillers {
		s = norm.NFC.String(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true

		pos := len(out)
		for i, e := range out {
			if strings.Contains(s, e) {
				pos = i
				break
			}
		}
		out = append(out, "")
		copy(out[pos+1:], out[pos:])
		out[pos] = s
	}
	return out, nil
}

// LoadFillerRulesFile returns DefaultFillers when path is empty.
func LoadFillerRulesFile(path string) (FillerRules, error) {
	if path == "" {
		return DefaultFillers, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFillerRules(f)
}
