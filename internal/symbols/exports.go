package symbols

import (
	"regexp"
	"sort"
	"strings"
)

var exportsPattern = regexp.MustCompile(`^(module\.)?exports(\..+)?( = (.+))?$`)

// IsExport reports whether s is an exports assignment or lives inside one.
func IsExport(s Symbol) bool {
	return exportsPattern.MatchString(s.Name) ||
		(s.ContainerName != "" && exportsPattern.MatchString(s.ContainerName))
}

// FilterExported keeps the symbols that make up a module's public surface.
// Files without exports are treated as global scripts and keep their
// top-level symbols. Aliased exports such as `module.exports = App` pull in
// App and everything contained in it.
func FilterExported(symbols []Symbol) []Symbol {
	var picked []int
	for i, s := range symbols {
		if IsExport(s) {
			picked = append(picked, i)
		}
	}

	if len(picked) == 0 {
		out := []Symbol{}
		for _, s := range symbols {
			if s.ContainerName == "" {
				out = append(out, s)
			}
		}
		return out
	}

	seen := make(map[int]bool, len(symbols))
	for _, i := range picked {
		seen[i] = true
	}
	for _, i := range append([]int(nil), picked...) {
		_, alias, ok := strings.Cut(symbols[i].Name, " = ")
		if !ok {
			continue
		}
		if j := strings.Index(alias, " = "); j >= 0 {
			alias = alias[:j]
		}
		prefix := alias + "."
		for j, s := range symbols {
			if seen[j] {
				continue
			}
			if s.Name == alias || s.ContainerName == alias || strings.HasPrefix(s.ContainerName, prefix) {
				seen[j] = true
				picked = append(picked, j)
			}
		}
	}

	out := make([]Symbol, 0, len(picked))
	for _, i := range picked {
		out = append(out, symbols[i])
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Range.Before(out[b].Range)
	})
	return out
}
