package keywords

import "github.com/spigell/resume-matcher/internal/textnorm"

func normalizeForTest(s string) string { return textnorm.Normalize(s) }
