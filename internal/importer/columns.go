package importer

import (
	"fmt"
	"strings"
)

// maxChoiceColumns is the highest discrete choice_N column recognized.
const maxChoiceColumns = 6

// columnSynonyms maps each standard column name to the header spellings
// accepted for it (after normalization). First match wins.
var columnSynonyms = map[string][]string{
	"category":       {"category", "cat"},
	"exam":           {"exam", "exam_name"},
	"question_text":  {"question_text", "question", "questiontext", "q"},
	"topic":          {"topic"},
	"difficulty":     {"difficulty", "diff"},
	"explanation":    {"explanation", "expl"},
	"points":         {"points", "point"},
	"order":          {"order", "ord"},
	"is_active":      {"is_active", "active"},
	"question_type":  {"question_type", "type", "qtype"},
	"correct_answer": {"correct_answer", "correct_choices", "correct", "answer", "right_answer"},
	"choices":        {"choices"},
}

// normalizeColumnName lowercases, trims, and replaces spaces with
// underscores so "Question Text" matches "question_text".
func normalizeColumnName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(normalized, " ", "_")
}

// columnMap resolves header names to record indexes, keyed by standard
// column name.
type columnMap map[string]int

// mapColumns matches the header row against the synonym table
// case-insensitively. Returns an error when the required exam and
// question_text columns, or every choice source, are missing; nothing is
// imported from such a file.
func mapColumns(header []string) (columnMap, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	normalized := make(map[string]int, len(header))
	for i, col := range header {
		name := normalizeColumnName(col)
		if name == "" {
			continue
		}
		if _, seen := normalized[name]; !seen {
			normalized[name] = i
		}
	}

	cm := make(columnMap)
	for standard, variations := range columnSynonyms {
		for _, v := range variations {
			if idx, ok := normalized[v]; ok {
				cm[standard] = idx
				break
			}
		}
	}

	// Discrete choice columns: choice_1..choice_6 and their spellings.
	for i := 1; i <= maxChoiceColumns; i++ {
		variations := []string{
			fmt.Sprintf("choice_%d", i),
			fmt.Sprintf("choice%d", i),
			fmt.Sprintf("option_%d", i),
			fmt.Sprintf("option%d", i),
		}
		for _, v := range variations {
			if idx, ok := normalized[v]; ok {
				cm[fmt.Sprintf("choice_%d", i)] = idx
				break
			}
		}
	}

	if _, ok := cm["exam"]; !ok {
		return nil, fmt.Errorf("missing required columns, found: %s (need: exam and question_text)",
			strings.Join(header, ", "))
	}
	if _, ok := cm["question_text"]; !ok {
		return nil, fmt.Errorf("missing required columns, found: %s (need: exam and question_text)",
			strings.Join(header, ", "))
	}
	if !cm.hasChoiceColumns() && !cm.has("choices") {
		return nil, fmt.Errorf("no choice columns found: need either Choice 1..Choice %d columns or a pipe-separated \"choices\" column", maxChoiceColumns)
	}

	return cm, nil
}

func (cm columnMap) has(name string) bool {
	_, ok := cm[name]
	return ok
}

// hasChoiceColumns reports whether any discrete choice_N column mapped.
func (cm columnMap) hasChoiceColumns() bool {
	for i := 1; i <= maxChoiceColumns; i++ {
		if cm.has(fmt.Sprintf("choice_%d", i)) {
			return true
		}
	}
	return false
}

// get returns the cleaned value of a standard column in a record, or ""
// when the column is absent or the record is short.
func (cm columnMap) get(record []string, name string) string {
	idx, ok := cm[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return cleanFieldValue(record[idx])
}
