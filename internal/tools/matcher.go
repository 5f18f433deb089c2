package tools

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai/structured"
	"github.com/spigell/linkedin-coach/internal/session"
)

//go:embed prompts/job_fit.md
var jobFitTemplate string

// DegradedSuggestion is the only suggestion of a job fit that could not be parsed.
const DegradedSuggestion = "Parsing failed or incomplete response."

type jobFitResponse struct {
	MatchScore    int      `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Suggestions   []string `json:"suggestions"`
}

var jobFitSchema = structured.MustSchema[jobFitResponse]("job_fit", func(s *jsonschema.Schema) {
	lo, hi := 0.0, 100.0
	s.Properties["match_score"].Minimum = &lo
	s.Properties["match_score"].Maximum = &hi
})

// MatchJob scores the profile against role and stores the result in st.JobFit and
// st.TargetRole. A parse failure is stored as a zero score with DegradedSuggestion.
func (s *Set) MatchJob(ctx context.Context, st *session.State, role string) (*session.JobFit, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, fmt.Errorf("%w: target_role", ErrToolArgumentMissing)
	}

	fit := &session.JobFit{TargetRole: role}

	resp, err := structured.Generate(ctx, s.parser, jobFitPrompt(st.Sections, role), jobFitSchema)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, err
	case err != nil:
		s.logger.Warn("job fit degraded", zap.String("target_role", role), zap.Error(err))
		fit.MatchScore = 0
		fit.MissingSkills = []string{}
		fit.Suggestions = []string{DegradedSuggestion}
	default:
		fit.MatchScore = resp.MatchScore
		fit.MissingSkills = orEmpty(resp.MissingSkills)
		fit.Suggestions = orEmpty(resp.Suggestions)
	}

	st.JobFit = fit
	st.TargetRole = role
	return fit, nil
}

func jobFitPrompt(sections session.Sections, role string) string {
	fields := []struct {
		label string
		name  session.SectionName
	}{
		{"Headline", session.SectionHeadline},
		{"About", session.SectionAbout},
		{"Job Title", session.SectionJobTitle},
		{"Company", session.SectionCompanyName},
		{"Industry", session.SectionCompanyIndustry},
		{"Current Job Duration", session.SectionCurrentJobDuration},
		{"Skills", session.SectionSkills},
		{"Projects", session.SectionProjects},
		{"Educations", session.SectionEducations},
		{"Certifications", session.SectionCertifications},
		{"Honors & Awards", session.SectionHonorsAndAwards},
		{"Experiences", session.SectionExperiences},
	}

	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.label, sections.Get(f.name))
	}

	return strings.NewReplacer(
		"{{TARGET_ROLE}}", role,
		"{{SECTIONS}}", strings.TrimSpace(b.String()),
	).Replace(jobFitTemplate)
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
