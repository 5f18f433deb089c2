// Package session holds the per-thread conversation state.
package session

import (
	"errors"
	"fmt"

	"github.com/spigell/linkedin-coach/internal/ai"
	"github.com/spigell/linkedin-coach/internal/profile"
)

var ErrStateValidation = errors.New("state validation failed")

type Strengths struct {
	Technical  []string `json:"technical"`
	Projects   []string `json:"projects"`
	Education  []string `json:"education"`
	SoftSkills []string `json:"soft_skills"`
}

type Weaknesses struct {
	TechnicalGaps           []string `json:"technical_gaps"`
	ProjectOrExperienceGaps []string `json:"project_or_experience_gaps"`
	MissingContext          []string `json:"missing_context"`
}

// ProfileAnalysis is the result of a full profile review.
type ProfileAnalysis struct {
	Strengths   Strengths  `json:"strengths"`
	Weaknesses  Weaknesses `json:"weaknesses"`
	Suggestions []string   `json:"suggestions"`
}

// JobFit scores the profile against a target role.
type JobFit struct {
	TargetRole    string   `json:"target_role"`
	MatchScore    int      `json:"match_score"`
	MissingSkills []string `json:"missing_skills"`
	Suggestions   []string `json:"suggestions"`
}

// State is everything a thread remembers between turns.
type State struct {
	Profile         profile.Profile        `json:"profile"`
	ProfileURL      string                 `json:"profile_url"`
	Sections        Sections               `json:"sections"`
	ProfileAnalysis *ProfileAnalysis       `json:"profile_analysis,omitempty"`
	JobFit          *JobFit                `json:"job_fit,omitempty"`
	TargetRole      string                 `json:"target_role,omitempty"`
	EditingSection  SectionName            `json:"editing_section,omitempty"`
	EnhancedContent map[SectionName]string `json:"enhanced_content"`
	Messages        []Turn                 `json:"messages"`
}

// NewState starts a thread for the profile scraped from url.
func NewState(p profile.Profile, url string) *State {
	return &State{
		Profile:         p,
		ProfileURL:      profile.NormalizeURL(url),
		Sections:        SectionsFromProfile(p),
		EnhancedContent: map[SectionName]string{},
		Messages:        []Turn{},
	}
}

func (s *State) Append(turn Turn) {
	s.Messages = append(s.Messages, turn)
}

// LastTurn returns the newest turn, ok is false on an empty history.
func (s *State) LastTurn() (Turn, bool) {
	if len(s.Messages) == 0 {
		return Turn{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Window renders the last n turns for the model. Empty assistant replies are dropped
// after the window is cut.
func (s *State) Window(n int) []ai.Message {
	turns := s.Messages
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	out := make([]ai.Message, 0, len(turns))
	for _, turn := range turns {
		if msg, ok := turn.message(); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Validate checks the state invariants. Every problem found is reported.
func (s *State) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: state is nil", ErrStateValidation)
	}

	var errs []error

	if err := profile.ValidateURL(s.ProfileURL); err != nil {
		errs = append(errs, fmt.Errorf("profile_url: %w", err))
	} else if s.ProfileURL != profile.NormalizeURL(s.ProfileURL) {
		errs = append(errs, fmt.Errorf("profile_url %q is not normalized", s.ProfileURL))
	}

	if s.Sections == nil {
		errs = append(errs, errors.New("sections are missing"))
	}
	for _, name := range sectionNames {
		if _, ok := s.Sections[name]; !ok && s.Sections != nil {
			errs = append(errs, fmt.Errorf("section %q is missing", name))
		}
	}
	for name := range s.Sections {
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("unknown section %q", name))
		}
	}

	if s.JobFit != nil && (s.JobFit.MatchScore < 0 || s.JobFit.MatchScore > 100) {
		errs = append(errs, fmt.Errorf("job_fit.match_score %d is out of range", s.JobFit.MatchScore))
	}

	if s.EditingSection != "" && !s.EditingSection.Valid() {
		errs = append(errs, fmt.Errorf("editing_section %q is unknown", s.EditingSection))
	}
	for name := range s.EnhancedContent {
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("enhanced_content has unknown section %q", name))
		}
	}

	for i, turn := range s.Messages {
		if err := turn.validate(); err != nil {
			errs = append(errs, fmt.Errorf("messages[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrStateValidation, errors.Join(errs...))
	}
	return nil
}
