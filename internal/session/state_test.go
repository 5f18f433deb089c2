package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/profile"
)

const testURL = "https://www.linkedin.com/in/ada"

func TestNewStateFillsEverySection(t *testing.T) {
	st := NewState(profile.Profile{About: "Experienced engineer...", Skills: "Go, SQL"}, " "+testURL+"/ ")

	if st.ProfileURL != testURL {
		t.Fatalf("expected normalized url, got %q", st.ProfileURL)
	}
	if len(st.Sections) != len(SectionNames()) {
		t.Fatalf("expected %d sections, got %d", len(SectionNames()), len(st.Sections))
	}
	for _, name := range SectionNames() {
		if _, ok := st.Sections[name]; !ok {
			t.Fatalf("section %q is absent", name)
		}
	}
	if st.Sections.Get(SectionAbout) != "Experienced engineer..." || st.Sections.Get(SectionPatents) != "" {
		t.Fatalf("unexpected sections: %+v", st.Sections)
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("fresh state must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*State)
		want   string
	}{
		{name: "missing section", mutate: func(s *State) { delete(s.Sections, SectionSkills) }, want: `section "skills" is missing`},
		{name: "unknown section", mutate: func(s *State) { s.Sections["hobbies"] = "" }, want: `unknown section "hobbies"`},
		{name: "bad url", mutate: func(s *State) { s.ProfileURL = "https://example.com" }, want: "profile_url"},
		{name: "url not normalized", mutate: func(s *State) { s.ProfileURL = testURL + "/" }, want: "not normalized"},
		{name: "score out of range", mutate: func(s *State) { s.JobFit = &JobFit{MatchScore: 140} }, want: "out of range"},
		{name: "tool turn without name", mutate: func(s *State) { s.Append(Turn{Kind: TurnTool, Content: "{}"}) }, want: "tool turn without tool name"},
		{name: "unknown turn", mutate: func(s *State) { s.Append(Turn{Kind: "system"}) }, want: "unknown turn kind"},
		{name: "unknown editing section", mutate: func(s *State) { s.EditingSection = "hobbies" }, want: "editing_section"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := NewState(profile.Profile{}, testURL)
			tc.mutate(st)

			err := st.Validate()
			if !errors.Is(err, ErrStateValidation) {
				t.Fatalf("expected ErrStateValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestWindowRelabelsTurns(t *testing.T) {
	st := NewState(profile.Profile{}, testURL)
	st.Append(UserTurn("hello"))
	st.Append(AssistantTurn(""))
	st.Append(ToolTurn("job_matcher", `{"match_score":72}`))
	st.Append(AssistantTurn("Your score is 72."))

	got := st.Window(6)
	want := []ai.Message{
		{Role: ai.RoleUser, Content: "User asked: hello"},
		{Role: ai.RoleAssistant, Tool: "job_matcher", Content: `[Tool: job_matcher] {"match_score":72}`},
		{Role: ai.RoleAssistant, Content: "Your score is 72."},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestWindowKeepsOnlyRecentTurns(t *testing.T) {
	st := NewState(profile.Profile{}, testURL)
	for _, text := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		st.Append(UserTurn(text))
	}

	got := st.Window(6)
	if len(got) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(got))
	}
	if got[0].Content != "User asked: 3" || got[5].Content != "User asked: 8" {
		t.Fatalf("unexpected window: %+v", got)
	}
}

func TestLastTurn(t *testing.T) {
	st := NewState(profile.Profile{}, testURL)
	if _, ok := st.LastTurn(); ok {
		t.Fatalf("empty history must not have a last turn")
	}
	st.Append(AssistantTurn("done"))
	if turn, ok := st.LastTurn(); !ok || turn.Content != "done" {
		t.Fatalf("unexpected last turn: %+v", turn)
	}
}
