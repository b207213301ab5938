package seeder

import (
	"context"
	"fmt"

	"devmatch/internal/database"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "devmatch-demo"

var demoUsers = []struct {
	Email      string
	FullName   string
	Experience string
	Hours      int
	Timezone   string
	Skills     []string
	Interests  []string
}{
	{"ada@devmatch.local", "Ada Demo", "EXPERT", 20, "Europe/London", []string{"Go", "PostgreSQL", "Kubernetes"}, []string{"infrastructure", "open source"}},
	{"linus@devmatch.local", "Linus Demo", "ADVANCED", 10, "Europe/Helsinki", []string{"C++", "Rust", "Git"}, []string{"open source", "systems"}},
	{"grace@devmatch.local", "Grace Demo", "INTERMEDIATE", 15, "America/New_York", []string{"React", "TypeScript", "Node"}, []string{"web", "education"}},
	{"alan@devmatch.local", "Alan Demo", "BEGINNER", 5, "Europe/London", []string{"Python", "PyTorch"}, []string{"ai", "education"}},
	{"hedy@devmatch.local", "Hedy Demo", "ADVANCED", 25, "Europe/Vienna", []string{"Flutter", "Dart", "Figma"}, []string{"mobile", "web"}},
}

// DemoUsersSeeder creates a handful of onboarded profiles so the matching
// endpoints return something on a fresh database.
type DemoUsersSeeder struct{}

func (DemoUsersSeeder) Name() string { return "demo-users" }

func (DemoUsersSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users", "id", "email", "password_hash", "experience_level", "hours_per_week", "onboarded"); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, u := range demoUsers {
			id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("devmatch:demo:"+u.Email))
			if _, err := tx.Exec(ctx, `
INSERT INTO users (id, email, password_hash, full_name, experience_level, hours_per_week, timezone, onboarded)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
ON CONFLICT (email) DO NOTHING`,
				id, u.Email, string(hash), u.FullName, u.Experience, u.Hours, u.Timezone,
			); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
INSERT INTO user_skills (user_id, skill_id)
SELECT $1, s.id FROM skills s WHERE s.name = ANY($2)
ON CONFLICT DO NOTHING`, id, u.Skills); err != nil {
				return err
			}
			for _, in := range u.Interests {
				if _, err := tx.Exec(ctx, `INSERT INTO user_interests (user_id, interest) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, in); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
