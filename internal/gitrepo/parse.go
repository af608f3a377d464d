package gitrepo

import (
	"sort"
	"strconv"
	"strings"
)

// statusEntry is one record from git diff --name-status -z.
type statusEntry struct {
	path        string
	status      FileStatus
	renamedFrom string
}

// parseNameStatus parses NUL-terminated --name-status output. Records are
// "M\0path\0" for ordinary changes and "R<score>\0old\0new\0" for renames
// and copies.
func parseNameStatus(out string) []statusEntry {
	tokens := splitNul(out)
	var entries []statusEntry
	for i := 0; i < len(tokens); i++ {
		code := tokens[i]
		if code == "" || i+1 >= len(tokens) {
			continue
		}
		switch code[0] {
		case 'R', 'C':
			if i+2 >= len(tokens) {
				return entries
			}
			entries = append(entries, statusEntry{
				path:        tokens[i+2],
				status:      StatusRenamed,
				renamedFrom: tokens[i+1],
			})
			i += 2
		case 'A':
			entries = append(entries, statusEntry{path: tokens[i+1], status: StatusAdded})
			i++
		case 'D':
			entries = append(entries, statusEntry{path: tokens[i+1], status: StatusDeleted})
			i++
		default:
			// M, T and anything else count as a modification.
			entries = append(entries, statusEntry{path: tokens[i+1], status: StatusModified})
			i++
		}
	}
	return entries
}

// numstatEntry holds line counts for one file, keyed by its post-change path.
type numstatEntry struct {
	additions int
	deletions int
}

// parseNumstat parses NUL-terminated --numstat output. Ordinary records are
// "adds\tdels\tpath\0"; renames put an empty path in the first token followed
// by the old and new paths as two further NUL fields. Binary files report
// "-" counts, recorded as zero.
func parseNumstat(out string) map[string]numstatEntry {
	counts := make(map[string]numstatEntry)
	tokens := splitNul(out)
	for i := 0; i < len(tokens); i++ {
		parts := strings.SplitN(tokens[i], "\t", 3)
		if len(parts) != 3 {
			continue
		}
		entry := numstatEntry{
			additions: parseCount(parts[0]),
			deletions: parseCount(parts[1]),
		}
		path := parts[2]
		if path == "" {
			if i+2 >= len(tokens) {
				break
			}
			path = tokens[i+2]
			i += 2
		}
		counts[path] = entry
	}
	return counts
}

// mergeChanges joins status records with numstat counts and sorts the result
// by path ascending for deterministic output.
func mergeChanges(statuses []statusEntry, counts map[string]numstatEntry) []FileChange {
	files := make([]FileChange, 0, len(statuses))
	for _, s := range statuses {
		c := counts[s.path]
		files = append(files, FileChange{
			Path:        s.path,
			Additions:   c.additions,
			Deletions:   c.deletions,
			Status:      s.status,
			RenamedFrom: s.renamedFrom,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

func parseCount(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func splitNul(out string) []string {
	tokens := strings.Split(out, "\x00")
	if len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// truncateAtFileBoundary cuts raw diff text exceeding maxBytes at the nearest
// preceding file boundary and appends TruncationMarker. It never cuts inside
// a file's hunks; the prefix always ends exactly where a file section ends.
func truncateAtFileBoundary(raw string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(raw) <= maxBytes {
		return raw, false
	}
	var b strings.Builder
	for _, section := range splitDiffSections(raw) {
		if b.Len()+len(section) > maxBytes {
			break
		}
		b.WriteString(section)
	}
	b.WriteString(TruncationMarker)
	b.WriteString("\n")
	return b.String(), true
}

// splitDiffSections splits unified diff text into per-file sections, each
// beginning at a "diff --git" header.
func splitDiffSections(raw string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(raw, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}
