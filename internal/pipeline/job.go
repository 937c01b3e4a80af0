package pipeline

import "strings"

// JobPosting holds the fields a job description is assembled from.
type JobPosting struct {
	Title          string
	Description    string
	Requirements   string
	Location       string
	EmploymentType string
}

// BuildJobDescription renders a posting as the text the analyzer scores against.
func BuildJobDescription(job JobPosting) string {
	parts := []string{
		"Job Title: " + strings.TrimSpace(job.Title),
		"\nDescription:\n" + strings.TrimSpace(job.Description),
	}

	if v := strings.TrimSpace(job.Requirements); v != "" {
		parts = append(parts, "\nRequirements:\n"+v)
	}
	if v := strings.TrimSpace(job.Location); v != "" {
		parts = append(parts, "\nLocation: "+v)
	}
	if v := strings.TrimSpace(job.EmploymentType); v != "" {
		parts = append(parts, "\nEmployment Type: "+v)
	}

	return strings.Join(parts, "\n")
}
