package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Field length limits.
const (
	maxNameLen            = 100
	maxDescriptionLen     = 200
	maxLongDescriptionLen = 2000
)

// KnownCategories lists the categories the host understands. Unknown
// categories are accepted for forward compatibility.
var KnownCategories = []string{"metadata", "coverart", "ui", "scripting", "filenaming", "other"}

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Issue is a single field-scoped validation problem.
type Issue struct {
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Error reports every violated manifest field so a submitter gets a complete
// report in one pass.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = iss.String()
	}
	return "invalid manifest:\n  " + strings.Join(msgs, "\n  ")
}

// Validate checks all manifest fields and returns a *Error listing every
// violation, or nil if the manifest is valid.
func Validate(m *Manifest) error {
	var issues []Issue

	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if m.UUID == "" {
		add("uuid", "missing required field")
	} else if u, err := uuid.Parse(m.UUID); err != nil || u.Version() != 4 {
		add("uuid", "must be a valid UUID v4")
	}

	if m.ID == "" {
		add("id", "missing required field")
	} else if !idPattern.MatchString(m.ID) {
		add("id", "must match %s", idPattern.String())
	}

	if m.Name == "" {
		add("name", "missing required field")
	} else if len(m.Name) > maxNameLen {
		add("name", "must be 1-%d characters", maxNameLen)
	}

	if m.Version == "" {
		add("version", "missing required field")
	}

	if m.Description == "" {
		add("description", "missing required field")
	} else if len(m.Description) > maxDescriptionLen {
		add("description", "must be 1-%d characters", maxDescriptionLen)
	}

	if len(m.LongDescription) > maxLongDescriptionLen {
		add("long_description", "must be max %d characters", maxLongDescriptionLen)
	}

	if len(m.API) == 0 {
		add("api", "missing required field")
	} else {
		for _, v := range m.API {
			if strings.TrimSpace(v) == "" {
				add("api", "must not contain empty versions")
				break
			}
		}
	}

	if len(m.Authors) == 0 {
		add("authors", "missing required field")
	} else {
		for _, a := range m.Authors {
			if strings.TrimSpace(a) == "" {
				add("authors", "must not contain empty entries")
				break
			}
		}
	}

	if m.License == "" {
		add("license", "missing required field")
	}

	if m.Categories != nil && len(m.Categories) == 0 {
		add("categories", "must contain at least one category if present")
	}
	for _, c := range m.Categories {
		if strings.TrimSpace(c) == "" {
			add("categories", "must not contain empty entries")
			break
		}
	}

	if len(issues) > 0 {
		return &Error{Issues: issues}
	}
	return nil
}

// LoadAndValidate reads the manifest from dir and validates it in one step.
func LoadAndValidate(dir string) (*Manifest, error) {
	m, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}
