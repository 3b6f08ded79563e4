package importer

import (
	"fmt"
	"strconv"
	"strings"
)

// Heuristic names recorded against each resolved row so imports can be
// audited when a spreadsheet uses an unusual correct-answer notation.
const (
	heuristicExactText     = "exact_text"
	heuristicContainment   = "containment"
	heuristicQuestionText  = "answer_in_question"
	heuristicNumericIndex  = "numeric_index"
	heuristicPipeSeparated = "pipe_separated_texts"
)

// resolveCorrectChoices maps a free-form correct-answer value onto
// 0-based indexes into choices. Heuristics run in a fixed order and the
// first one yielding at least one index wins:
//
//  1. exact case-insensitive text match
//  2. substring containment either direction (single stops at first hit)
//  3. answer text present in the question text, with a secondary match
//     against the choices
//  4. 1-indexed choice numbers, single or comma/pipe separated
//  5. pipe-separated choice texts, fuzzily matched
//
// Returns the winning heuristic's name alongside the indexes.
func resolveCorrectChoices(answerText, questionText string, choices []string, questionType string) ([]int, string, error) {
	answer := strings.ToLower(strings.TrimSpace(answerText))
	if answer == "" {
		return nil, "", fmt.Errorf("correct answer value is empty")
	}

	lowered := make([]string, len(choices))
	for i, c := range choices {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}

	if indices := matchExactText(answer, lowered); len(indices) > 0 {
		return indices, heuristicExactText, nil
	}
	if indices := matchContainment(answer, lowered, questionType); len(indices) > 0 {
		return indices, heuristicContainment, nil
	}
	if indices := matchViaQuestionText(answer, questionText, choices, lowered); len(indices) > 0 {
		return indices, heuristicQuestionText, nil
	}
	if indices := matchNumericIndices(answerText, len(choices)); len(indices) > 0 {
		return indices, heuristicNumericIndex, nil
	}
	if indices := matchPipeSeparatedTexts(answerText, lowered); len(indices) > 0 {
		return indices, heuristicPipeSeparated, nil
	}

	return nil, "", fmt.Errorf("could not determine correct answer: provided %q, choices: %s",
		answerText, strings.Join(choices, " | "))
}

func matchExactText(answer string, lowered []string) []int {
	for i, choice := range lowered {
		if choice == answer {
			return []int{i}
		}
	}
	return nil
}

func matchContainment(answer string, lowered []string, questionType string) []int {
	var indices []int
	for i, choice := range lowered {
		if strings.Contains(choice, answer) || strings.Contains(answer, choice) {
			indices = append(indices, i)
			if questionType == "single" {
				break
			}
		}
	}
	return indices
}

// matchViaQuestionText handles rows whose answer value also appears in
// the question itself, e.g. "Odd one out: 5, 11, 17, 22, 29" with
// answer "22". The answer must occur in the question text and then
// still match one of the choices.
func matchViaQuestionText(answer, questionText string, choices, lowered []string) []int {
	if !strings.Contains(strings.ToLower(questionText), answer) {
		return nil
	}
	for i, choice := range lowered {
		if answer == choice || strings.Contains(choice, answer) {
			return []int{i}
		}
		if n, err := strconv.Atoi(answer); err == nil {
			if strings.Contains(choices[i], strconv.Itoa(n)) {
				return []int{i}
			}
		}
	}
	return nil
}

// matchNumericIndices interprets the answer as 1-indexed choice
// numbers: a single number, then comma-separated, then pipe-separated.
// Out-of-range numbers are dropped rather than reported.
func matchNumericIndices(answerText string, choiceCount int) []int {
	trimmed := strings.TrimSpace(answerText)

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= choiceCount {
			return []int{n - 1}
		}
		return nil
	}

	for _, sep := range []string{",", "|"} {
		if !strings.Contains(trimmed, sep) {
			continue
		}
		parts := strings.Split(trimmed, sep)
		nums := make([]int, 0, len(parts))
		allNumeric := true
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				allNumeric = false
				break
			}
			nums = append(nums, n)
		}
		if !allNumeric {
			continue
		}
		var indices []int
		for _, n := range nums {
			if n >= 1 && n <= choiceCount {
				indices = append(indices, n-1)
			}
		}
		return indices
	}
	return nil
}

// matchPipeSeparatedTexts splits the answer on pipes and fuzzily
// matches each part against the choices, containment in either
// direction. Duplicate hits collapse to one index.
func matchPipeSeparatedTexts(answerText string, lowered []string) []int {
	var parts []string
	for _, p := range strings.Split(answerText, "|") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	var indices []int
	seen := make(map[int]bool)
	for i, choice := range lowered {
		for _, part := range parts {
			if part == choice || strings.Contains(choice, part) || strings.Contains(part, choice) {
				if !seen[i] {
					seen[i] = true
					indices = append(indices, i)
				}
				break
			}
		}
	}
	return indices
}
