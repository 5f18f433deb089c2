package tools

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/linkedin-coach/internal/session"
)

// Extraction is the result of ExtractFromState. Result is nil when the path does not resolve.
type Extraction struct {
	Result any `json:"result"`
}

var extractRoots = []string{
	"profile_analysis",
	"job_fit",
	"target_role",
	"editing_section",
	"enhanced_content",
}

// ExtractKeys lists the keys advertised to the model.
func ExtractKeys() []string {
	keys := make([]string, 0, len(session.SectionNames())+len(extractRoots))
	for _, name := range session.SectionNames() {
		keys = append(keys, "sections."+string(name))
	}
	return append(keys, extractRoots...)
}

// Extract resolves a dot separated key against st. Only the sections,
// profile_analysis, job_fit, target_role, editing_section and enhanced_content
// roots are readable. It never modifies st.
func Extract(st *session.State, key string) Extraction {
	if st == nil {
		return Extraction{}
	}

	segments := strings.Split(strings.TrimSpace(key), ".")

	var root any
	switch segments[0] {
	case "sections":
		m := make(map[string]any, len(st.Sections))
		for name, text := range st.Sections {
			m[string(name)] = text
		}
		root = m
	case "enhanced_content":
		m := make(map[string]any, len(st.EnhancedContent))
		for name, text := range st.EnhancedContent {
			m[string(name)] = text
		}
		root = m
	case "profile_analysis":
		if st.ProfileAnalysis == nil {
			return Extraction{}
		}
		root = structToMap(*st.ProfileAnalysis)
	case "job_fit":
		if st.JobFit == nil {
			return Extraction{}
		}
		root = structToMap(*st.JobFit)
	case "target_role":
		if st.TargetRole == "" {
			return Extraction{}
		}
		root = st.TargetRole
	case "editing_section":
		if st.EditingSection == "" {
			return Extraction{}
		}
		root = string(st.EditingSection)
	default:
		return Extraction{}
	}

	return Extraction{Result: walk(root, segments[1:])}
}

func walk(value any, path []string) any {
	for _, segment := range path {
		m, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		if value, ok = m[segment]; !ok {
			return nil
		}
	}
	return value
}

// structToMap flattens nested structs into maps keyed by their json names.
func structToMap(v any) any {
	out := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "json",
	})
	if err != nil {
		return nil
	}
	if err := decoder.Decode(v); err != nil {
		return nil
	}
	return out
}
