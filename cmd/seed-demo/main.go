package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rajisurvase/village-orbit-api/internal/config"
	"github.com/rajisurvase/village-orbit-api/internal/database"
	"github.com/rajisurvase/village-orbit-api/internal/logger"
	"github.com/rajisurvase/village-orbit-api/internal/model"
	"github.com/rajisurvase/village-orbit-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo exam with a question pool and two student accounts so the
// portal can be exercised locally without the admin UI.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo password")
	}

	standards := []string{"6th", "9th"}
	for i, std := range standards {
		standard := std
		student := &model.Student{
			Name:         fmt.Sprintf("Demo Student %d", i+1),
			Standard:     &standard,
			Phone:        fmt.Sprintf("99000011%02d", i+1),
			PasswordHash: string(hash),
		}
		if err := studentRepo.Create(ctx, student); err != nil {
			log.Warn().Err(err).Str("phone", student.Phone).Msg("Student seed skipped")
			continue
		}
		log.Info().Int("id", student.ID).Str("phone", student.Phone).Msg("Student seeded")
	}

	now := time.Now()
	ends := now.Add(30 * 24 * time.Hour)
	from, to := "5th", "10th"
	exam := &model.Exam{
		Title:            "General Science Practice Test",
		Subject:          "Science",
		TotalQuestions:   5,
		DurationMinutes:  20,
		PassMarks:        40,
		Status:           model.ExamStatusActive,
		ScheduledAt:      &now,
		EndsAt:           &ends,
		FromStandard:     &from,
		ToStandard:       &to,
		ShuffleQuestions: true,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed exam")
	}
	log.Info().Str("exam_id", exam.ID.String()).Msg("Exam seeded")

	questions := []model.Question{
		{QuestionText: "Which planet is known as the Red Planet?", OptionA: "Mars", OptionB: "Venus", OptionC: "Jupiter", OptionD: "Saturn", CorrectOption: "A"},
		{QuestionText: "Water boils at what temperature at sea level?", OptionA: "90°C", OptionB: "100°C", OptionC: "110°C", OptionD: "120°C", CorrectOption: "B"},
		{QuestionText: "Which gas do plants absorb from the atmosphere?", OptionA: "Oxygen", OptionB: "Nitrogen", OptionC: "Carbon dioxide", OptionD: "Hydrogen", CorrectOption: "C"},
		{QuestionText: "The smallest unit of life is the:", OptionA: "Atom", OptionB: "Molecule", OptionC: "Organ", OptionD: "Cell", CorrectOption: "D"},
		{QuestionText: "Which of these is a renewable energy source?", OptionA: "Solar", OptionB: "Coal", OptionC: "Petrol", OptionD: "Natural gas", CorrectOption: "A"},
	}
	for i := range questions {
		questions[i].ExamID = exam.ID
		questions[i].OrderNum = i + 1
	}
	if err := questionRepo.ReplaceForExam(ctx, exam.ID, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}
	log.Info().Int("count", len(questions)).Msg("Questions seeded")

	fmt.Println("Demo data ready. Log in with phone 9900001101 / password123.")
}
