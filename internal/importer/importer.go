package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quizhub/internal/domain"
	"quizhub/internal/logger"
)

// Importer bulk-loads questions from spreadsheet files dropped in an
// inbox folder. Each file imports inside a single transaction: any row
// error rolls the whole file back and moves it to the failed folder
// with a sibling error log.
type Importer struct {
	catalogRepo domain.CatalogRepository
	txManager   domain.TransactionManager

	inboxDir     string
	processedDir string
	failedDir    string
}

// Summary aggregates the outcome of one inbox sweep.
type Summary struct {
	FilesProcessed   int
	FilesFailed      int
	QuestionsCreated int
	QuestionsUpdated int
	ChoicesCreated   int
}

type fileStats struct {
	created int
	updated int
	choices int
}

// NewImporter builds an importer rooted at inboxDir. The processed and
// failed folders are siblings of the inbox, mirroring the staging
// layout operators drop files into.
func NewImporter(catalogRepo domain.CatalogRepository, txManager domain.TransactionManager, inboxDir string) *Importer {
	parent := filepath.Dir(inboxDir)
	return &Importer{
		catalogRepo:  catalogRepo,
		txManager:    txManager,
		inboxDir:     inboxDir,
		processedDir: filepath.Join(parent, "processed"),
		failedDir:    filepath.Join(parent, "failed"),
	}
}

// Run sweeps the inbox once, importing every *.csv, *.xlsx and *.xls
// file it finds. A failed file does not stop the sweep.
func (imp *Importer) Run(ctx context.Context) (*Summary, error) {
	log := logger.Get()

	for _, dir := range []string{imp.inboxDir, imp.processedDir, imp.failedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", dir, err)
		}
	}

	var files []string
	for _, pattern := range []string{"*.csv", "*.xlsx", "*.xls"} {
		matches, err := filepath.Glob(filepath.Join(imp.inboxDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list inbox: %w", err)
		}
		files = append(files, matches...)
	}

	summary := &Summary{}
	if len(files) == 0 {
		log.Info("No files found in inbox folder", zap.String("inbox", imp.inboxDir))
		return summary, nil
	}

	log.Info("Importing question files",
		zap.Int("count", len(files)),
		zap.String("inbox", imp.inboxDir))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		stats, err := imp.processFile(ctx, file)
		if err != nil {
			summary.FilesFailed++
			log.Warn("File import failed",
				zap.String("file", filepath.Base(file)),
				zap.Error(err))
			continue
		}

		summary.FilesProcessed++
		summary.QuestionsCreated += stats.created
		summary.QuestionsUpdated += stats.updated
		summary.ChoicesCreated += stats.choices
		log.Info("File imported",
			zap.String("file", filepath.Base(file)),
			zap.Int("created", stats.created),
			zap.Int("updated", stats.updated),
			zap.Int("choices", stats.choices))
	}

	return summary, nil
}

// processFile imports one file and moves it to processed/ on success or
// failed/ (with an error log) on any error.
func (imp *Importer) processFile(ctx context.Context, path string) (*fileStats, error) {
	header, records, err := imp.readFile(path)
	if err != nil {
		imp.moveToFailed(path, []string{err.Error()})
		return nil, err
	}

	cm, err := mapColumns(header)
	if err != nil {
		imp.moveToFailed(path, []string{err.Error()})
		return nil, err
	}

	stats := &fileStats{}
	var rowErrors []string

	txErr := imp.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i, record := range records {
			rowNum := i + 2 // header is row 1
			if isEmptyRecord(record) {
				continue
			}

			created, choiceCount, err := imp.processRow(txCtx, cm, record)
			if err != nil {
				rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %v", rowNum, err))
				continue
			}
			if created {
				stats.created++
			} else {
				stats.updated++
			}
			stats.choices += choiceCount
		}
		if len(rowErrors) > 0 {
			return fmt.Errorf("%d row(s) failed", len(rowErrors))
		}
		return nil
	})

	if txErr != nil {
		if len(rowErrors) == 0 {
			rowErrors = []string{txErr.Error()}
		}
		imp.moveToFailed(path, rowErrors)
		return nil, txErr
	}

	if err := moveFile(path, filepath.Join(imp.processedDir, filepath.Base(path))); err != nil {
		return nil, err
	}
	return stats, nil
}

func (imp *Importer) readFile(path string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return parseExcel(path)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read file: %w", err)
		}
		return parseCSV(raw)
	}
}

// processRow upserts one question with its choices. All text fields are
// stripped of square brackets before they reach the database.
func (imp *Importer) processRow(ctx context.Context, cm columnMap, record []string) (bool, int, error) {
	categoryName := stripBrackets(cm.get(record, "category"))
	if categoryName == "" {
		categoryName = "General"
	}
	category, err := imp.catalogRepo.GetOrCreateCategory(ctx, categoryName,
		fmt.Sprintf("Category for %s exams", categoryName))
	if err != nil {
		return false, 0, err
	}

	examName := stripBrackets(cm.get(record, "exam"))
	examDefaults := &domain.Exam{
		CategoryID:      category.ID,
		Name:            examName,
		DurationMinutes: 60,
		TotalQuestions:  10,
		PassingScore:    60,
		IsActive:        true,
	}
	if err := examDefaults.Validate(); err != nil {
		return false, 0, err
	}
	exam, err := imp.catalogRepo.GetOrCreateExam(ctx, category.ID, examName, examDefaults)
	if err != nil {
		return false, 0, err
	}

	topicID := ""
	if topicName := stripBrackets(cm.get(record, "topic")); topicName != "" {
		topic, err := imp.catalogRepo.GetOrCreateTopic(ctx, exam.ID, topicName, "", 0)
		if err != nil {
			return false, 0, err
		}
		topicID = topic.ID
	}

	questionText := stripBrackets(cm.get(record, "question_text"))
	question := &domain.Question{
		ExamID:       exam.ID,
		TopicID:      topicID,
		QuestionText: questionText,
		QuestionType: domain.ParseQuestionType(cm.get(record, "question_type")),
		Difficulty:   domain.ParseDifficulty(cm.get(record, "difficulty")),
		Explanation:  stripBrackets(cm.get(record, "explanation")),
		Points:       parseIntOr(cm.get(record, "points"), 1),
		Order:        parseIntOr(cm.get(record, "order"), 0),
		IsActive:     parseTruthy(cm.get(record, "is_active")),
	}
	if err := question.Validate(); err != nil {
		return false, 0, err
	}

	choiceTexts, err := collectChoices(cm, record)
	if err != nil {
		return false, 0, err
	}

	answerText := stripBrackets(cm.get(record, "correct_answer"))
	correctIndices, heuristic, err := resolveCorrectChoices(
		answerText, questionText, choiceTexts, string(question.QuestionType))
	if err != nil {
		return false, 0, err
	}
	if heuristic != heuristicExactText {
		logger.Get().Debug("Correct answer resolved by fallback heuristic",
			zap.String("heuristic", heuristic),
			zap.String("answer", answerText),
			zap.String("question", questionText))
	}

	created, err := imp.catalogRepo.UpsertQuestion(ctx, question)
	if err != nil {
		return false, 0, err
	}

	correctSet := make(map[int]bool, len(correctIndices))
	for _, idx := range correctIndices {
		correctSet[idx] = true
	}
	choices := make([]domain.Choice, len(choiceTexts))
	for i, text := range choiceTexts {
		choices[i] = domain.Choice{
			QuestionID: question.ID,
			ChoiceText: text,
			IsCorrect:  correctSet[i],
			Order:      i,
		}
	}
	if err := imp.catalogRepo.ReplaceChoices(ctx, question.ID, choices); err != nil {
		return false, 0, err
	}

	return created, len(choices), nil
}

// collectChoices reads either the discrete choice_1..choice_6 columns
// or the pipe-separated choices column, discrete columns taking
// precedence when both mapped.
func collectChoices(cm columnMap, record []string) ([]string, error) {
	var texts []string
	if cm.hasChoiceColumns() {
		for i := 1; i <= maxChoiceColumns; i++ {
			if text := stripBrackets(cm.get(record, fmt.Sprintf("choice_%d", i))); text != "" {
				texts = append(texts, text)
			}
		}
	} else {
		for _, part := range strings.Split(cm.get(record, "choices"), "|") {
			if text := stripBrackets(strings.TrimSpace(part)); text != "" {
				texts = append(texts, text)
			}
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("at least one choice is required")
	}
	return texts, nil
}

func (imp *Importer) moveToFailed(path string, errs []string) {
	log := logger.Get()
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	logPath := filepath.Join(imp.failedDir, stem+"_errors.txt")
	var sb strings.Builder
	fmt.Fprintf(&sb, "Errors processing %s:\n\n", name)
	for _, e := range errs {
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(logPath, []byte(sb.String()), 0o644); err != nil {
		log.Error("Failed to write error log", zap.String("path", logPath), zap.Error(err))
	}

	if err := moveFile(path, filepath.Join(imp.failedDir, name)); err != nil {
		log.Error("Failed to move file to failed folder",
			zap.String("file", name), zap.Error(err))
	}
}

func moveFile(src, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dest, err)
		}
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}
	return nil
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func parseIntOr(s string, fallback int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// parseTruthy treats an absent value as true so spreadsheets without an
// is_active column import everything active.
func parseTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "":
		return true
	default:
		return false
	}
}
