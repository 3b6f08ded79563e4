package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// commaPlaceholder temporarily replaces commas inside bracketed or
// quoted fields so the CSV split leaves them intact. Restored per field
// after parsing.
const commaPlaceholder = "\x00COMMA\x00"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	bracketPattern = regexp.MustCompile(`\[([^\]]*)\]`)
	quotedPattern  = regexp.MustCompile(`"([^"]+)"`)
)

// decodeBytes turns raw file bytes into a string, trying UTF-8,
// UTF-8 with BOM, Latin-1 and Windows-1252 in that order.
func decodeBytes(raw []byte) (string, error) {
	if bytes.HasPrefix(raw, utf8BOM) {
		raw = raw[len(utf8BOM):]
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	for _, cm := range []*charmap.Charmap{charmap.ISO8859_1, charmap.Windows1252} {
		decoded, err := cm.NewDecoder().Bytes(raw)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("could not determine file encoding")
}

// escapeProtectedCommas hides commas inside [...] and "..." fields
// behind a placeholder. The bracket format lets spreadsheet rows carry
// literal commas without CSV quoting: [Category],[Exam],[Question, with comma],...
func escapeProtectedCommas(content string) string {
	content = bracketPattern.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ReplaceAll(match, ",", commaPlaceholder)
	})
	content = quotedPattern.ReplaceAllStringFunc(content, func(match string) string {
		return strings.ReplaceAll(match, ",", commaPlaceholder)
	})
	return content
}

// sniffDelimiter picks the delimiter with the most occurrences in the
// header line, defaulting to comma. Run after escapeProtectedCommas so
// protected commas don't vote.
func sniffDelimiter(content string) rune {
	line := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		line = content[:idx]
	}

	best := ','
	bestCount := strings.Count(line, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// cleanFieldValue trims a parsed field, removes one layer of wrapping
// brackets or quotes, and restores protected commas.
func cleanFieldValue(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") && len(value) >= 2 {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2 {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	return strings.ReplaceAll(value, commaPlaceholder, ",")
}

// stripBrackets removes every square bracket from a text field so none
// leak into the database or the UI.
func stripBrackets(text string) string {
	text = strings.ReplaceAll(text, "[", "")
	return strings.ReplaceAll(text, "]", "")
}

// parseCSV decodes raw CSV bytes into a header row and data records,
// applying encoding detection, comma protection and delimiter sniffing.
func parseCSV(raw []byte) ([]string, [][]string, error) {
	content, err := decodeBytes(raw)
	if err != nil {
		return nil, nil, err
	}

	content = escapeProtectedCommas(content)
	delimiter := sniffDelimiter(content)

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file has no header row")
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = cleanFieldValue(col)
	}
	return header, records[1:], nil
}
