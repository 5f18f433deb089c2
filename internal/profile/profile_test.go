package profile

import (
	"errors"
	"testing"
)

func sampleRecord() map[string]any {
	return map[string]any{
		"fullName":           "Ada Lovelace",
		"linkedinUrl":        "https://www.linkedin.com/in/ada/",
		"headline":           "Data Engineer",
		"jobTitle":           "Senior Data Engineer",
		"companyName":        "Analytical Engines",
		"companyIndustry":    "Software",
		"currentJobDuration": 3,
		"about":              "Experienced engineer building data platforms.",
		"experiences":        []any{map[string]any{"title": "Data Engineer"}, map[string]any{"title": ""}},
		"skills": []any{
			map[string]any{"title": "Python"},
			map[string]any{"title": "SQL"},
			map[string]any{"subtitle": "no title"},
		},
		"educations": []any{
			map[string]any{"title": "University of London", "subtitle": "BSc Mathematics", "caption": "2010 - 2014"},
		},
		"licenseAndCertificates": []any{
			map[string]any{"title": "GCP Data Engineer", "subtitle": "Google", "caption": "Issued 2022"},
		},
		"testScores": []any{
			map[string]any{"title": "GRE", "subtitle": "330"},
		},
		"projects": []any{
			map[string]any{
				"title": "Pipeline",
				"subComponents": []any{
					map[string]any{"description": []any{
						map[string]any{"type": "textComponent", "text": "Built a streaming pipeline."},
						map[string]any{"type": "mediaComponent", "text": "ignored"},
						map[string]any{"type": "textComponent", "text": "Cut costs by 30%."},
					}},
				},
			},
			map[string]any{"title": "Dashboard"},
		},
		"courses": []any{map[string]any{"title": "Statistics"}, map[string]any{"title": "Machine Learning"}},
	}
}

func TestSummarize(t *testing.T) {
	p, err := FromRecord(sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		field string
		got   string
		want  string
	}{
		{"FullName", p.FullName, "Ada Lovelace"},
		{"ProfileURL", p.ProfileURL, "https://www.linkedin.com/in/ada/"},
		{"CurrentJobDuration", p.CurrentJobDuration, "3"},
		{"Experiences", p.Experiences, "Data Engineer"},
		{"Skills", p.Skills, "Python, SQL"},
		{"Educations", p.Educations, "University of London (BSc Mathematics, 2010 - 2014)"},
		{"Certifications", p.Certifications, "GCP Data Engineer (Google, Issued 2022)"},
		{"TestScores", p.TestScores, "GRE (330)"},
		{"Projects", p.Projects, "Pipeline: Built a streaming pipeline. Cut costs by 30%.\nDashboard: "},
		{"Courses", p.Courses, "Statistics, Machine Learning"},
		{"Patents", p.Patents, ""},
		{"HonorsAndAwards", p.HonorsAndAwards, ""},
	}

	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.field, tc.want, tc.got)
		}
	}
}

func TestSummarizeMissingFields(t *testing.T) {
	for name, record := range map[string]map[string]any{
		"nil":   nil,
		"empty": {},
		"nulls": {"fullName": nil, "skills": nil, "projects": []any{}},
	} {
		t.Run(name, func(t *testing.T) {
			p, err := FromRecord(record)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.IsEmpty() {
				t.Fatalf("expected every field to be empty, got %+v", p)
			}
		})
	}
}

func TestDecodeKeepsWellFormedFields(t *testing.T) {
	record := map[string]any{
		"fullName": "Grace Hopper",
		"skills":   "COBOL",
	}

	p, err := FromRecord(record)
	if err == nil {
		t.Fatalf("expected shape error for skills")
	}
	if p.FullName != "Grace Hopper" {
		t.Fatalf("expected full name to survive, got %q", p.FullName)
	}
}

func TestNormalizeURL(t *testing.T) {
	want := "https://www.linkedin.com/in/ada"
	for _, input := range []string{
		"https://www.linkedin.com/in/ada",
		"https://www.linkedin.com/in/ada/",
		"  https://www.linkedin.com/in/ada/  ",
		"\thttps://www.linkedin.com/in/ada\n",
	} {
		if got := NormalizeURL(input); got != want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://www.linkedin.com/in/ada/",
		"https://www.linkedin.com/in/ada",
		" https://www.linkedin.com/in/ada-lovelace-123/ ",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected %q to be valid: %v", u, err)
		}
	}

	invalid := []string{
		"",
		"http://www.linkedin.com/in/ada/",
		"https://linkedin.com/in/ada/",
		"https://www.linkedin.com/company/acme/",
		"https://www.linkedin.com/in/ada/details/skills/",
	}
	for _, u := range invalid {
		if err := ValidateURL(u); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("expected %q to be rejected, got %v", u, err)
		}
	}
}
