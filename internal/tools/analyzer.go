package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai/structured"
	"github.com/spigell/linkedin-coach/internal/profile"
	"github.com/spigell/linkedin-coach/internal/session"
)

//go:embed prompts/profile_analysis.md
var analysisTemplate string

var analysisSchema = structured.MustSchema[session.ProfileAnalysis]("profile_analysis", nil)

// AnalysisFailure is returned to the model in place of an analysis that could not be parsed.
type AnalysisFailure struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// AnalyzeProfile reviews the whole profile. A parsed analysis is stored in
// st.ProfileAnalysis. Parse failures degrade into an AnalysisFailure and leave
// the state untouched; only cancellation is returned as an error.
func (s *Set) AnalyzeProfile(ctx context.Context, st *session.State) (any, error) {
	analysis, err := structured.Generate(ctx, s.parser, analysisPrompt(st.Profile), analysisSchema)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		var failure *structured.Failure
		raw := ""
		if errors.As(err, &failure) {
			raw = failure.Raw
		}

		s.logger.Warn("profile analysis degraded", zap.Error(err))
		return AnalysisFailure{Error: err.Error(), Raw: raw}, nil
	}

	st.ProfileAnalysis = analysis
	return analysis, nil
}

func analysisPrompt(p profile.Profile) string {
	fields := []struct {
		label string
		value string
	}{
		{"FullName", p.FullName},
		{"Headline", p.Headline},
		{"JobTitle", p.JobTitle},
		{"CompanyName", p.CompanyName},
		{"CompanyIndustry", p.CompanyIndustry},
		{"CurrentJobDuration", p.CurrentJobDuration},
		{"About", p.About},
		{"Experiences", p.Experiences},
		{"Skills", p.Skills},
		{"Educations", p.Educations},
		{"Certifications", p.Certifications},
		{"HonorsAndAwards", p.HonorsAndAwards},
		{"Verifications", p.Verifications},
		{"Highlights", p.Highlights},
		{"Projects", p.Projects},
		{"Publications", p.Publications},
		{"Patents", p.Patents},
		{"Courses", p.Courses},
		{"TestScores", p.TestScores},
	}

	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}

	return strings.ReplaceAll(analysisTemplate, "{{PROFILE}}", strings.TrimSpace(b.String()))
}
