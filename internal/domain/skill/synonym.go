package skill

// Synonyms maps alternative spellings, including GitHub language names, to the
// normalized catalog name.
var Synonyms = map[string]string{
	"golang":              "go",
	"js":                  "javascript",
	"ts":                  "typescript",
	"node.js":             "node",
	"nodejs":              "node",
	"reactjs":             "react",
	"react.js":            "react",
	"vue.js":              "vue",
	"vuejs":               "vue",
	"nextjs":              "next.js",
	"scss":                "css",
	"less":                "css",
	"csharp":              "c#",
	"cpp":                 "c++",
	"postgres":            "postgresql",
	"mongo":               "mongodb",
	"dockerfile":          "docker",
	"k8s":                 "kubernetes",
	"hcl":                 "terraform",
	"bash":                "shell",
	"powershell":          "shell",
	"amazon web services": "aws",
	"google cloud":        "gcp",
	"plpgsql":             "postgresql",
	"tsql":                "sql",
}

// CanonicalName normalizes name and resolves it through Synonyms.
func CanonicalName(name string) string {
	n := NormalizeName(name)
	if c, ok := Synonyms[n]; ok {
		return c
	}
	return n
}
