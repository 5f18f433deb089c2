package session

import "github.com/spigell/linkedin-coach/internal/profile"

// SectionName addresses one slice of the summarized profile.
type SectionName string

const (
	SectionAbout              SectionName = "about"
	SectionHeadline           SectionName = "headline"
	SectionSkills             SectionName = "skills"
	SectionProjects           SectionName = "projects"
	SectionEducations         SectionName = "educations"
	SectionCertifications     SectionName = "certifications"
	SectionHonorsAndAwards    SectionName = "honors_and_awards"
	SectionExperiences        SectionName = "experiences"
	SectionPublications       SectionName = "publications"
	SectionPatents            SectionName = "patents"
	SectionCourses            SectionName = "courses"
	SectionTestScores         SectionName = "test_scores"
	SectionVerifications      SectionName = "verifications"
	SectionHighlights         SectionName = "highlights"
	SectionJobTitle           SectionName = "job_title"
	SectionCompanyName        SectionName = "company_name"
	SectionCompanyIndustry    SectionName = "company_industry"
	SectionCurrentJobDuration SectionName = "current_job_duration"
	SectionFullName           SectionName = "full_name"
)

var sectionNames = []SectionName{
	SectionAbout,
	SectionHeadline,
	SectionSkills,
	SectionProjects,
	SectionEducations,
	SectionCertifications,
	SectionHonorsAndAwards,
	SectionExperiences,
	SectionPublications,
	SectionPatents,
	SectionCourses,
	SectionTestScores,
	SectionVerifications,
	SectionHighlights,
	SectionJobTitle,
	SectionCompanyName,
	SectionCompanyIndustry,
	SectionCurrentJobDuration,
	SectionFullName,
}

// SectionNames returns the closed set of section names in a stable order.
func SectionNames() []SectionName {
	out := make([]SectionName, len(sectionNames))
	copy(out, sectionNames)
	return out
}

func (n SectionName) Valid() bool {
	for _, known := range sectionNames {
		if n == known {
			return true
		}
	}
	return false
}

// Sections holds every section of the closed set. Values default to "".
type Sections map[SectionName]string

// SectionsFromProfile fills every known section from p.
func SectionsFromProfile(p profile.Profile) Sections {
	return Sections{
		SectionAbout:              p.About,
		SectionHeadline:           p.Headline,
		SectionSkills:             p.Skills,
		SectionProjects:           p.Projects,
		SectionEducations:         p.Educations,
		SectionCertifications:     p.Certifications,
		SectionHonorsAndAwards:    p.HonorsAndAwards,
		SectionExperiences:        p.Experiences,
		SectionPublications:       p.Publications,
		SectionPatents:            p.Patents,
		SectionCourses:            p.Courses,
		SectionTestScores:         p.TestScores,
		SectionVerifications:      p.Verifications,
		SectionHighlights:         p.Highlights,
		SectionJobTitle:           p.JobTitle,
		SectionCompanyName:        p.CompanyName,
		SectionCompanyIndustry:    p.CompanyIndustry,
		SectionCurrentJobDuration: p.CurrentJobDuration,
		SectionFullName:           p.FullName,
	}
}

// Get returns the section text, "" for unknown names.
func (s Sections) Get(name SectionName) string {
	return s[name]
}
