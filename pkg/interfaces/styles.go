package interfaces

import "strings"

// SyncMode selects which artifact taxonomy a run produces.
type SyncMode string

const (
	ModeRequirements SyncMode = "requirements"
	ModeTestCases    SyncMode = "test-cases"
	ModeTasks        SyncMode = "tasks"
)

// ParseSyncMode accepts the canonical names plus a few short aliases.
func ParseSyncMode(value string) (SyncMode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "requirements", "requirement", "rq":
		return ModeRequirements, true
	case "test-cases", "testcases", "test_cases", "tests", "tc":
		return ModeTestCases, true
	case "tasks", "task", "tk", "schedule":
		return ModeTasks, true
	default:
		return "", false
	}
}

// DefaultIgnoreSentinel is the reserved side-channel literal that excludes a
// node from synchronization.
const DefaultIgnoreSentinel = "IGNORE"

// StepColumns holds 1-based column indexes read by the step table scanner. A
// zero index disables the field.
type StepColumns struct {
	Description    int `yaml:"description" json:"description"`
	ExpectedResult int `yaml:"expected_result" json:"expected_result"`
	SampleData     int `yaml:"sample_data" json:"sample_data"`
}

// Enabled reports whether any step column is configured.
func (c StepColumns) Enabled() bool {
	return c.Description > 0 || c.ExpectedResult > 0 || c.SampleData > 0
}

// StyleMapping binds semantic roles to the style names the author used. It is
// passed explicitly to the classifier and the driver for one session.
type StyleMapping struct {
	// Requirements lists the style names for requirement indent levels 1..n.
	Requirements     []string    `yaml:"requirements" json:"requirements"`
	TestFolder       string      `yaml:"test_folder" json:"test_folder"`
	TestCase         string      `yaml:"test_case" json:"test_case"`
	Release          string      `yaml:"release" json:"release"`
	Task             string      `yaml:"task" json:"task"`
	Steps            StepColumns `yaml:"steps" json:"steps"`
	UseOutlineLevels bool        `yaml:"use_outline_levels" json:"use_outline_levels"`
	IgnoreSentinel   string      `yaml:"ignore_sentinel" json:"ignore_sentinel"`
}

// DefaultStyleMapping maps the stock heading styles onto every role.
func DefaultStyleMapping() StyleMapping {
	return StyleMapping{
		Requirements: []string{"Heading 1", "Heading 2", "Heading 3", "Heading 4", "Heading 5"},
		TestFolder:   "Heading 1",
		TestCase:     "Heading 2",
		Release:      "Heading 1",
		Task:         "Heading 2",
		Steps: StepColumns{
			Description:    1,
			ExpectedResult: 2,
			SampleData:     3,
		},
		IgnoreSentinel: DefaultIgnoreSentinel,
	}
}

// Sentinel returns the configured ignore literal or the default one.
func (m StyleMapping) Sentinel() string {
	if s := strings.TrimSpace(m.IgnoreSentinel); s != "" {
		return s
	}
	return DefaultIgnoreSentinel
}

// Progress reports how many units of a run have completed.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}
