package handler

import (
	"github.com/gofiber/fiber/v2"

	"quizhub/internal/service"
)

// QuizHandler serves the public catalog endpoints.
type QuizHandler struct {
	quizService service.QuizService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// ListCategories handles GET /api/categories
func (h *QuizHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.quizService.ListCategories(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// ListExams handles GET /api/exams?category_id=
func (h *QuizHandler) ListExams(c *fiber.Ctx) error {
	exams, err := h.quizService.ListExams(c.Context(), c.Query("category_id"))
	if err != nil {
		return err
	}
	return c.JSON(exams)
}

// GetExam handles GET /api/exams/:id
func (h *QuizHandler) GetExam(c *fiber.Ctx) error {
	exam, err := h.quizService.GetExam(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(exam)
}

// GetExamQuestions handles GET /api/exams/:id/questions
func (h *QuizHandler) GetExamQuestions(c *fiber.Ctx) error {
	questions, err := h.quizService.GetExamQuestions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(questions)
}
