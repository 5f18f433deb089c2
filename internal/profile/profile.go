// Package profile converts scraped LinkedIn records into flat text sections.
package profile

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	ErrInvalidURL = errors.New("invalid linkedin profile url")

	profileURLRe = regexp.MustCompile(`^https://www\.linkedin\.com/in/[^/]+/?$`)
)

// Profile is the summarized, flat view of a scraped profile. It is built once
// per session and never changed afterwards.
type Profile struct {
	FullName           string `json:"full_name"`
	ProfileURL         string `json:"profile_url"`
	Headline           string `json:"headline"`
	JobTitle           string `json:"job_title"`
	CompanyName        string `json:"company_name"`
	CompanyIndustry    string `json:"company_industry"`
	CurrentJobDuration string `json:"current_job_duration"`
	About              string `json:"about"`
	Experiences        string `json:"experiences"`
	Skills             string `json:"skills"`
	Educations         string `json:"educations"`
	Certifications     string `json:"certifications"`
	HonorsAndAwards    string `json:"honors_and_awards"`
	Verifications      string `json:"verifications"`
	Highlights         string `json:"highlights"`
	Projects           string `json:"projects"`
	Publications       string `json:"publications"`
	Patents            string `json:"patents"`
	Courses            string `json:"courses"`
	TestScores         string `json:"test_scores"`
}

// IsEmpty reports whether nothing usable was scraped.
func (p Profile) IsEmpty() bool {
	return p == Profile{}
}

// Raw mirrors the parts of the scraper record the summarizer reads.
type Raw struct {
	FullName               string `mapstructure:"fullName"`
	LinkedinURL            string `mapstructure:"linkedinUrl"`
	Headline               string `mapstructure:"headline"`
	JobTitle               string `mapstructure:"jobTitle"`
	CompanyName            string `mapstructure:"companyName"`
	CompanyIndustry        string `mapstructure:"companyIndustry"`
	CurrentJobDuration     string `mapstructure:"currentJobDuration"`
	About                  string `mapstructure:"about"`
	Experiences            []Item `mapstructure:"experiences"`
	Skills                 []Item `mapstructure:"skills"`
	Educations             []Item `mapstructure:"educations"`
	LicenseAndCertificates []Item `mapstructure:"licenseAndCertificates"`
	HonorsAndAwards        []Item `mapstructure:"honorsAndAwards"`
	Verifications          []Item `mapstructure:"verifications"`
	Highlights             []Item `mapstructure:"highlights"`
	Projects               []Item `mapstructure:"projects"`
	Publications           []Item `mapstructure:"publications"`
	Patents                []Item `mapstructure:"patents"`
	Courses                []Item `mapstructure:"courses"`
	TestScores             []Item `mapstructure:"testScores"`
}

type Item struct {
	Title         string         `mapstructure:"title"`
	Subtitle      string         `mapstructure:"subtitle"`
	Caption       string         `mapstructure:"caption"`
	SubComponents []SubComponent `mapstructure:"subComponents"`
}

type SubComponent struct {
	Description []Description `mapstructure:"description"`
}

type Description struct {
	Type string `mapstructure:"type"`
	Text string `mapstructure:"text"`
}

const textComponent = "textComponent"

// Decode reads a raw scraper record. Fields with an unexpected shape are reported
// in the error while the remaining fields are still decoded.
func Decode(record map[string]any) (*Raw, error) {
	raw := &Raw{}
	if len(record) == 0 {
		return raw, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return raw, err
	}

	if err := decoder.Decode(record); err != nil {
		return raw, fmt.Errorf("decode profile record: %w", err)
	}

	return raw, nil
}

// Summarize flattens the raw record. Missing fields become empty strings.
func Summarize(raw *Raw) Profile {
	if raw == nil {
		return Profile{}
	}

	return Profile{
		FullName:           raw.FullName,
		ProfileURL:         raw.LinkedinURL,
		Headline:           raw.Headline,
		JobTitle:           raw.JobTitle,
		CompanyName:        raw.CompanyName,
		CompanyIndustry:    raw.CompanyIndustry,
		CurrentJobDuration: raw.CurrentJobDuration,
		About:              raw.About,
		Experiences:        joinTitles(raw.Experiences),
		Skills:             joinTitles(raw.Skills),
		Educations:         joinDetailed(raw.Educations, true),
		Certifications:     joinDetailed(raw.LicenseAndCertificates, true),
		HonorsAndAwards:    joinTitles(raw.HonorsAndAwards),
		Verifications:      joinTitles(raw.Verifications),
		Highlights:         joinTitles(raw.Highlights),
		Projects:           summarizeProjects(raw.Projects),
		Publications:       joinTitles(raw.Publications),
		Patents:            joinTitles(raw.Patents),
		Courses:            joinTitles(raw.Courses),
		TestScores:         joinDetailed(raw.TestScores, false),
	}
}

// FromRecord decodes and summarizes in one step.
func FromRecord(record map[string]any) (Profile, error) {
	raw, err := Decode(record)
	return Summarize(raw), err
}

func joinTitles(items []Item) string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title != "" {
			titles = append(titles, item.Title)
		}
	}
	return strings.Join(titles, ", ")
}

// joinDetailed renders "title (subtitle, caption)" or "title (subtitle)".
func joinDetailed(items []Item, withCaption bool) string {
	entries := make([]string, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		if withCaption {
			entries = append(entries, fmt.Sprintf("%s (%s, %s)", item.Title, item.Subtitle, item.Caption))
		} else {
			entries = append(entries, fmt.Sprintf("%s (%s)", item.Title, item.Subtitle))
		}
	}
	return strings.Join(entries, ", ")
}

// summarizeProjects renders one "title: description" line per project.
func summarizeProjects(projects []Item) string {
	lines := make([]string, 0, len(projects))
	for _, project := range projects {
		var desc strings.Builder
		for _, comp := range project.SubComponents {
			for _, d := range comp.Description {
				if d.Type == textComponent {
					desc.WriteString(d.Text)
					desc.WriteString(" ")
				}
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s", project.Title, strings.TrimSpace(desc.String())))
	}
	return strings.Join(lines, "\n")
}

// NormalizeURL trims whitespace and trailing slashes. The result identifies a thread.
func NormalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

// ValidateURL checks the https://www.linkedin.com/in/<handle>/ shape.
func ValidateURL(url string) error {
	if !profileURLRe.MatchString(strings.TrimSpace(url)) {
		return fmt.Errorf("%w: %q (expected https://www.linkedin.com/in/<handle>/)", ErrInvalidURL, strings.TrimSpace(url))
	}
	return nil
}
