package seeder

// Defaults returns the reference data seeders. Demo profiles are added only when
// asked for, they are meant for local development.
func Defaults(demo bool) []Seeder {
	out := []Seeder{SkillsSeeder{}}
	if demo {
		out = append(out, DemoUsersSeeder{})
	}
	return out
}
