package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"feedback-be/internal/domain"
	"feedback-be/internal/repository"
	"feedback-be/internal/service"
	"feedback-be/internal/service/auth"
	"feedback-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch command {
	case "drop":
		if err := dropTables(ctx, db); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		if err := seedData(ctx, db); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, db *database.PostgresDB) error {
	for _, query := range database.SchemaDown {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}
	return nil
}

// seedData creates one active lesson poll and one general survey, and prints
// development tokens for sample respondents when JWT_SECRET is set.
func seedData(ctx context.Context, db *database.PostgresDB) error {
	polls := repository.NewPollRepository(db)
	now := time.Now().UTC()

	lesson := &domain.LessonContext{
		Subject:     "Databases",
		TeacherID:   "teacher-1",
		TeacherName: "Dr. Ivanova",
		Date:        now.Add(-2 * time.Hour),
		Group:       "CS-21",
	}
	seeded := []*domain.Poll{
		{
			ID:        uuid.New(),
			AuthorID:  lesson.TeacherID,
			Title:     "Databases: lesson feedback",
			Type:      domain.PollTypeLessonFeedback,
			Questions: service.LessonFeedbackTemplate(),
			Targeting: domain.Targeting{Groups: []string{lesson.Group}},
			StartsAt:  lesson.Date,
			EndsAt:    lesson.Date.Add(service.DefaultLessonPollWindow),
			Status:    domain.StatusActive,
			Lesson:    lesson,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:       uuid.New(),
			AuthorID: "admin-1",
			Title:    "Campus services survey",
			Type:     domain.PollTypeGeneral,
			Questions: []domain.Question{
				{ID: "library", Text: "Is the library open long enough?", Type: domain.QuestionBinary, Required: true},
				{ID: "canteen", Text: "Rate the canteen", Type: domain.QuestionRating, Scale: 10},
				{ID: "ideas", Text: "Ideas for improvement", Type: domain.QuestionFreeText},
			},
			Targeting: domain.Targeting{Faculties: []string{"fit"}},
			StartsAt:  now.Add(-time.Hour),
			EndsAt:    now.Add(30 * 24 * time.Hour),
			Status:    domain.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	for _, poll := range seeded {
		if err := poll.Validate(); err != nil {
			return err
		}
		if err := polls.Create(ctx, poll); err != nil {
			return err
		}
		fmt.Printf("  Created poll %s (%s)\n", poll.ID, poll.Title)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil
	}
	profiles := []domain.RespondentProfile{
		{
			ID:      "student-1",
			Role:    domain.RoleStudent,
			Faculty: domain.Attribute{Key: "fit", Name: "Faculty of IT"},
			Program: domain.Attribute{Key: "cs", Name: "Computer Science"},
			Course:  2,
			Group:   domain.Attribute{Key: "CS-21", Name: "CS-21"},
		},
		{ID: "teacher-1", Role: domain.RoleTeacher, Faculty: domain.Attribute{Key: "fit", Name: "Faculty of IT"}},
		{ID: "admin-1", Role: domain.RoleAdmin},
	}
	for _, p := range profiles {
		token, err := auth.Sign(secret, os.Getenv("JWT_ISSUER"), p, 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%s): %s\n", p.ID, p.Role, token)
	}
	return nil
}
