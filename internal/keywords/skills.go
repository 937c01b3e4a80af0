package keywords

import (
	"sort"
	"strings"

	"github.com/spigell/resume-matcher/internal/textnorm"
)

// defaultSkills is the curated technical skills dictionary. Names are kept in
// their conventional spelling and matched in normalised form.
var defaultSkills = []string{
	// programming languages
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "go", "golang", "rust",
	"php", "swift", "kotlin", "scala", "r", "matlab", "sql", "perl", "bash", "powershell",
	"vba", "sas", "julia", "dart", "objective-c",

	// web
	"html", "html5", "css", "css3", "react", "reactjs", "angular", "angularjs", "vue", "vuejs",
	"node.js", "nodejs", "django", "flask", "spring", "spring boot", "express", "expressjs",
	"fastapi", "next.js", "nextjs", "gatsby", "jquery", "bootstrap", "tailwind",
	"asp.net", "laravel", "ruby on rails", "svelte",

	// databases
	"mysql", "postgresql", "postgres", "mongodb", "redis", "elasticsearch", "oracle",
	"dynamodb", "cassandra", "neo4j", "sqlite", "mariadb", "microsoft sql server",
	"sql server", "couchdb", "firebase", "snowflake", "bigquery", "redshift",

	// cloud and devops
	"aws", "amazon web services", "azure", "microsoft azure", "gcp", "google cloud",
	"docker", "kubernetes", "k8s", "jenkins", "gitlab", "github actions",
	"terraform", "ansible", "ci/cd", "circleci", "travis ci", "cloudformation",
	"vagrant", "puppet", "chef", "bamboo",

	// data science and analytics
	"machine learning", "deep learning", "nlp", "natural language processing",
	"tensorflow", "pytorch", "keras", "scikit-learn", "sklearn", "pandas", "numpy",
	"spark", "apache spark", "hadoop", "pyspark", "jupyter", "tableau", "power bi",
	"looker", "data analysis", "data analytics", "data visualization", "data mining",
	"statistical analysis", "predictive modeling", "forecasting", "time series",
	"regression", "classification", "clustering", "neural networks", "computer vision",
	"image processing", "opencv", "data warehousing", "etl", "big data",
	"business intelligence", "analytics", "quantitative analysis",

	// operations and business
	"operations management", "process optimization", "supply chain", "inventory management",
	"logistics", "lean", "six sigma", "kaizen", "project management", "agile", "scrum",
	"kanban", "waterfall", "business analysis", "business process", "kpi", "metrics",
	"performance management", "quality assurance", "quality control", "continuous improvement",

	// version control
	"git", "github", "bitbucket", "svn", "mercurial", "version control",

	// testing
	"unit testing", "integration testing", "selenium", "pytest", "junit", "jest",
	"testing", "test automation", "qa", "tdd", "bdd",

	// tools and protocols
	"linux", "unix", "windows server", "jira", "confluence", "slack", "teams",
	"rest api", "restful", "graphql", "soap", "microservices", "api",
	"json", "xml", "yaml", "grpc", "websocket", "oauth", "jwt",
	"excel", "microsoft excel", "google sheets", "macros",
	"powerpoint", "word", "office 365", "google workspace",

	// soft skills and methods
	"leadership", "cross-functional", "stakeholder management", "communication",
	"problem solving", "critical thinking", "decision making", "strategic planning",
	"change management", "vendor management", "budget management",
	"root cause analysis", "swot analysis", "gap analysis",

	// methodologies
	"agile methodology", "scrum methodology", "devops", "devsecops",
	"continuous integration", "continuous deployment", "automation",
}

type dictEntry struct {
	name    string
	pattern string
	phrase  bool
}

// Dictionary matches canonical skill names against normalised text.
// It is immutable after construction and safe for concurrent use.
type Dictionary struct {
	entries []dictEntry
}

// NewDictionary builds a dictionary from canonical skill names. Names that
// normalise to nothing are skipped, duplicates keep their first spelling.
func NewDictionary(names []string) *Dictionary {
	seen := make(map[string]struct{}, len(names))
	d := &Dictionary{entries: make([]dictEntry, 0, len(names))}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		pattern := textnorm.Normalize(name)
		if pattern == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		d.entries = append(d.entries, dictEntry{
			name:    name,
			pattern: pattern,
			phrase:  strings.Contains(pattern, " "),
		})
	}
	return d
}

// DefaultDictionary returns the built-in technical skills dictionary.
func DefaultDictionary() *Dictionary {
	return NewDictionary(defaultSkills)
}

// Len returns the number of canonical skills.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Names returns the canonical skill names in dictionary order.
func (d *Dictionary) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.name
	}
	return names
}

// Match returns the sorted canonical names found in normalised text.
// Single-token skills match whole tokens only, multi-token skills match as
// contiguous phrases on token boundaries.
func (d *Dictionary) Match(normalized string) []string {
	if d == nil || normalized == "" {
		return nil
	}

	tokens := make(map[string]struct{})
	for _, tok := range textnorm.Tokens(normalized) {
		tokens[tok] = struct{}{}
	}

	var found []string
	for _, e := range d.entries {
		if e.phrase {
			if textnorm.ContainsPhrase(normalized, e.pattern) {
				found = append(found, e.name)
			}
			continue
		}
		if _, ok := tokens[e.pattern]; ok {
			found = append(found, e.name)
		}
	}

	sort.Strings(found)
	return found
}
