package tools

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/session"
)

func TestExtract(t *testing.T) {
	st := newTestState()
	st.JobFit = &session.JobFit{TargetRole: "Data Scientist", MatchScore: 72, MissingSkills: []string{"Statistics"}}
	st.TargetRole = "Data Scientist"
	st.ProfileAnalysis = &session.ProfileAnalysis{
		Strengths: session.Strengths{Technical: []string{"Python"}},
	}
	st.EnhancedContent[session.SectionAbout] = "Rewritten about"

	cases := []struct {
		key  string
		want any
	}{
		{key: "sections.about", want: "Experienced engineer..."},
		{key: "sections.patents", want: ""},
		{key: "sections.nonexistent", want: nil},
		{key: "job_fit.match_score", want: 72},
		{key: "job_fit.missing_skills", want: []string{"Statistics"}},
		{key: "job_fit.match_score.deeper", want: nil},
		{key: "profile_analysis.strengths.technical", want: []string{"Python"}},
		{key: "target_role", want: "Data Scientist"},
		{key: "editing_section", want: nil},
		{key: "enhanced_content.about", want: "Rewritten about"},
		{key: "enhanced_content.skills", want: nil},
		{key: "messages", want: nil},
		{key: "profile.FullName", want: nil},
		{key: "", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			got := Extract(st, tc.key)
			if !reflect.DeepEqual(got.Result, tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, got.Result)
			}
		})
	}
}

func TestExtractUnsetResults(t *testing.T) {
	st := newTestState()
	for _, key := range []string{"job_fit", "profile_analysis.suggestions", "target_role"} {
		if got := Extract(st, key); got.Result != nil {
			t.Fatalf("%s: expected nil, got %#v", key, got.Result)
		}
	}
}

func TestExtractThroughExecute(t *testing.T) {
	set := newTestSet(&stubGenerator{responses: []string{"{}"}})
	st := newTestState()
	before := len(st.Messages)

	body, err := set.Execute(context.Background(), st, ai.ToolCall{
		Name: string(ExtractFromState),
		Args: map[string]any{"key": "sections.about"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != `{"result":"Experienced engineer..."}` {
		t.Fatalf("unexpected body: %s", body)
	}

	body, err = set.Execute(context.Background(), st, ai.ToolCall{
		Name: string(ExtractFromState),
		Args: map[string]any{"key": "sections.nonexistent"},
	})
	if err != nil || body != `{"result":null}` {
		t.Fatalf("unexpected result %s (%v)", body, err)
	}

	if len(st.Messages) != before {
		t.Fatalf("extraction must not modify state")
	}

	if _, err := set.Execute(context.Background(), st, ai.ToolCall{Name: string(ExtractFromState)}); !errors.Is(err, ErrToolArgumentMissing) {
		t.Fatalf("expected ErrToolArgumentMissing, got %v", err)
	}
}
