// Copyright © 2018 The ELPS authors

package repl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// commandCompleter implements readline.AutoCompleter.  The first word
// completes to a command name and the argument of load completes to a path.
type commandCompleter struct{}

func (c *commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to whitespace).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	before := strings.Fields(string(line[:start]))

	var candidates []string
	switch {
	case len(before) == 0:
		candidates = commandNames(prefix)
	case len(before) == 1 && before[0] == "load":
		candidates = pathNames(prefix)
	}
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len([]rune(prefix))
}

func commandNames(prefix string) []string {
	var result []string
	for _, c := range commands {
		if strings.HasPrefix(c.name, prefix) {
			result = append(result, c.name)
		}
	}
	for _, name := range []string{"help", "quit"} {
		if strings.HasPrefix(name, prefix) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}

// pathNames lists the python files and directories starting with prefix.
func pathNames(prefix string) []string {
	matches, err := filepath.Glob(prefix + "*")
	if err != nil {
		return nil
	}
	var result []string
	for _, m := range matches {
		if !strings.HasPrefix(m, prefix) {
			continue
		}
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			result = append(result, m+string(filepath.Separator))
		case filepath.Ext(m) == ".py":
			result = append(result, m)
		}
	}
	sort.Strings(result)
	return result
}
