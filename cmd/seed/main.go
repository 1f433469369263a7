package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/logger"
)

var firstNames = []string{
	"Asha", "Ravi", "Meera", "Arjun", "Divya", "Karan", "Priya", "Sanjay",
	"Nisha", "Vikram", "Anita", "Rahul", "Sneha", "Manoj", "Pooja", "Deepak",
}

var lastNames = []string{
	"Sharma", "Patel", "Iyer", "Reddy", "Nair", "Gupta", "Joshi", "Menon",
	"Desai", "Kulkarni", "Rao", "Verma",
}

var subjectNames = map[int][]string{
	3: {"Data Structures", "Discrete Mathematics", "Digital Logic", "Object Oriented Programming"},
	4: {"Operating Systems", "Computer Organization", "Probability and Statistics", "Database Systems"},
	5: {"Computer Networks", "Theory of Computation", "Software Engineering", "Web Technologies"},
	6: {"Compiler Design", "Machine Learning", "Information Security", "Distributed Systems"},
	7: {"Cloud Computing", "Data Mining", "Natural Language Processing", "Mobile Computing"},
	8: {"Big Data Analytics", "Deep Learning", "Blockchain Fundamentals", "Project Work"},
}

// Seeds teachers, subjects, unique teacher-subject pairings and an admin
// account for local development.
func main() {
	teacherCount := flag.Int("teachers", 12, "number of teachers to create")
	pairingCount := flag.Int("pairings", 30, "number of teacher-subject pairings to attempt")
	adminEmail := flag.String("admin-email", "admin@timetable.local", "admin account email")
	adminPassword := flag.String("admin-password", "admin123", "admin account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	pairingRepo := repository.NewTeacherSubjectRepository(db)

	exists, err := userRepo.ExistsByEmail(ctx, *adminEmail)
	if err != nil {
		logr.Sugar().Fatalw("failed to check admin account", "error", err)
	}
	if !exists {
		hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
		if err != nil {
			logr.Sugar().Fatalw("failed to hash admin password", "error", err)
		}
		admin := &models.User{
			Email:        *adminEmail,
			PasswordHash: string(hash),
			FullName:     "Administrator",
			Role:         models.RoleAdmin,
			Active:       true,
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			logr.Sugar().Fatalw("failed to create admin account", "error", err)
		}
		logr.Sugar().Infow("admin account created", "email", *adminEmail)
	}

	teachers := make([]*models.Teacher, 0, *teacherCount)
	for i := 0; i < *teacherCount; i++ {
		teacher := &models.Teacher{
			Name:       fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
			Phone:      fmt.Sprintf("98%08d", rng.Intn(100000000)),
			Department: cfg.Timetable.Department,
		}
		if err := teacherRepo.Create(ctx, teacher); err != nil {
			logr.Sugar().Fatalw("failed to create teacher", "error", err)
		}
		teachers = append(teachers, teacher)
	}
	logr.Sugar().Infow("teachers created", "count", len(teachers))

	subjects := make([]*models.Subject, 0)
	for semester, names := range subjectNames {
		for i, name := range names {
			subject := &models.Subject{
				Semester: semester,
				Name:     name,
				Code:     fmt.Sprintf("CS%d%02d", semester, i+1),
			}
			taken, err := subjectRepo.ExistsByCode(ctx, subject.Code, "")
			if err != nil {
				logr.Sugar().Fatalw("failed to check subject code", "error", err)
			}
			if taken {
				continue
			}
			if err := subjectRepo.Create(ctx, subject); err != nil {
				logr.Sugar().Fatalw("failed to create subject", "error", err)
			}
			subjects = append(subjects, subject)
		}
	}
	logr.Sugar().Infow("subjects created", "count", len(subjects))

	if len(teachers) == 0 || len(subjects) == 0 {
		logr.Sugar().Infow("nothing to pair, done")
		return
	}

	created := 0
	for i := 0; i < *pairingCount; i++ {
		teacher := teachers[rng.Intn(len(teachers))]
		subject := subjects[rng.Intn(len(subjects))]

		exists, err := pairingRepo.Exists(ctx, teacher.ID, subject.ID)
		if err != nil {
			logr.Sugar().Fatalw("failed to check pairing", "error", err)
		}
		if exists {
			continue
		}
		if err := pairingRepo.Create(ctx, &models.TeacherSubject{
			TeacherID: teacher.ID,
			SubjectID: subject.ID,
		}); err != nil {
			logr.Sugar().Fatalw("failed to create pairing", "error", err)
		}
		created++
	}
	logr.Sugar().Infow("pairings created", "count", created)
}
