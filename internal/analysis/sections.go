package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Sections is the canonical set of CV sections the analyzer reviews, in
// display order. Interaction calls may only target these names.
var Sections = []string{
	"Professional Profile",
	"Experience",
	"Education",
	"Skills",
	"Projects",
	"Certifications",
}

// sectionPatterns matches common header spellings to canonical section names.
var sectionPatterns = map[string]*regexp.Regexp{
	"Professional Profile": regexp.MustCompile(`(?i)(professional\s+profile|profile|summary|objective)`),
	"Experience":           regexp.MustCompile(`(?i)(experience|work\s+experience|employment|career)`),
	"Education":            regexp.MustCompile(`(?i)(education|academic|qualifications)`),
	"Skills":               regexp.MustCompile(`(?i)(skills|technical\s+skills|competencies)`),
	"Projects":             regexp.MustCompile(`(?i)(projects|key\s+projects|notable\s+projects)`),
	"Certifications":       regexp.MustCompile(`(?i)(certifications?|certificates?|credentials)`),
}

// ExtractSections splits CV text into canonical sections by header matching.
// A line matching a section pattern starts that section; following lines
// belong to it until the next header. When nothing matches, the whole CV is
// filed under Experience so analysis still has material to work with.
func ExtractSections(cvContent string) map[string]string {
	sections := make(map[string]string)

	var currentSection string
	var currentContent []string

	flush := func() {
		if currentSection != "" && len(currentContent) > 0 {
			sections[currentSection] = strings.Join(currentContent, "\n")
		}
	}

	for _, line := range strings.Split(cvContent, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matched := false
		for _, name := range Sections {
			if sectionPatterns[name].MatchString(line) {
				flush()
				currentSection = name
				currentContent = nil
				matched = true
				break
			}
		}
		if !matched && currentSection != "" {
			currentContent = append(currentContent, line)
		}
	}
	flush()

	if len(sections) == 0 {
		sections["Experience"] = cvContent
	}

	return sections
}

// SectionContent returns the extracted text for a canonical section, or the
// not-found placeholder when the CV has no such section.
func SectionContent(extracted map[string]string, sectionName string) string {
	if content, ok := extracted[sectionName]; ok {
		return content
	}
	return MissingSectionPlaceholder(sectionName)
}

// MissingSectionPlaceholder is the stand-in content for sections absent from
// the CV.
func MissingSectionPlaceholder(sectionName string) string {
	return fmt.Sprintf("[%s section not found in CV]", sectionName)
}

// KnownSection reports whether name is one of the canonical sections.
func KnownSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}
