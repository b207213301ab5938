package seeder

import (
	"context"

	"devmatch/internal/database"
	"devmatch/internal/domain/skill"
)

// Catalog is the built-in skill list. Names double as the lookup keys for the
// GitHub language import, so they follow GitHub's spelling where one exists.
var Catalog = []struct {
	Name     string
	Category skill.Category
}{
	{"JavaScript", skill.CategoryFrontend},
	{"TypeScript", skill.CategoryFrontend},
	{"React", skill.CategoryFrontend},
	{"Vue", skill.CategoryFrontend},
	{"Angular", skill.CategoryFrontend},
	{"Next.js", skill.CategoryFrontend},
	{"HTML", skill.CategoryFrontend},
	{"CSS", skill.CategoryFrontend},
	{"Go", skill.CategoryBackend},
	{"Java", skill.CategoryBackend},
	{"Kotlin", skill.CategoryBackend},
	{"Python", skill.CategoryBackend},
	{"Node", skill.CategoryBackend},
	{"Ruby", skill.CategoryBackend},
	{"PHP", skill.CategoryBackend},
	{"C#", skill.CategoryBackend},
	{"Rust", skill.CategoryBackend},
	{"C++", skill.CategoryBackend},
	{"Spring Boot", skill.CategoryBackend},
	{"Swift", skill.CategoryMobile},
	{"Flutter", skill.CategoryMobile},
	{"Dart", skill.CategoryMobile},
	{"React Native", skill.CategoryMobile},
	{"PostgreSQL", skill.CategoryDatabase},
	{"MySQL", skill.CategoryDatabase},
	{"MongoDB", skill.CategoryDatabase},
	{"Redis", skill.CategoryDatabase},
	{"Docker", skill.CategoryDevOps},
	{"Kubernetes", skill.CategoryDevOps},
	{"AWS", skill.CategoryDevOps},
	{"GCP", skill.CategoryDevOps},
	{"Terraform", skill.CategoryDevOps},
	{"Shell", skill.CategoryDevOps},
	{"Figma", skill.CategoryDesign},
	{"UI/UX", skill.CategoryDesign},
	{"Pandas", skill.CategoryDataScience},
	{"SQL", skill.CategoryDataScience},
	{"Jupyter Notebook", skill.CategoryDataScience},
	{"R", skill.CategoryDataScience},
	{"PyTorch", skill.CategoryMachineLearning},
	{"TensorFlow", skill.CategoryMachineLearning},
	{"Solidity", skill.CategoryBlockchain},
	{"Git", skill.CategoryOther},
}

type SkillsSeeder struct{}

func (SkillsSeeder) Name() string { return "skills" }

func (SkillsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "skills", "id", "name", "category", "created_at"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, it := range Catalog {
			if _, err := tx.Exec(
				ctx,
				`INSERT INTO skills (id, name, category) VALUES (gen_random_uuid(), $1, $2) ON CONFLICT (name) DO NOTHING`,
				it.Name,
				string(it.Category),
			); err != nil {
				return err
			}
		}
		return nil
	})
}
