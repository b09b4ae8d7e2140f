// Package labels holds the immutable finding-name to label-code table used to normalize
// reviewer annotations.
package labels

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownName = errors.New("unknown annotation name")
	ErrMalformed   = errors.New("malformed annotation document")
)

var defaults = map[string]string{
	"Sinus rhythm":                   "SR",
	"Sinus tachycardia":              "STACH",
	"Sinus bradycardia":              "SBRAD",
	"Sinus arrhythmia":               "SARRH",
	"Atrial fibrillation":            "AFIB",
	"Atrial flutter":                 "AFLT",
	"Supraventricular tachycardia":   "SVTAC",
	"Premature atrial complex":       "PAC",
	"Premature ventricular complex":  "PVC",
	"Ventricular tachycardia":        "VTAC",
	"First degree AV block":          "1AVB",
	"Second degree AV block":         "2AVB",
	"Third degree AV block":          "3AVB",
	"Left bundle branch block":       "LBBB",
	"Right bundle branch block":      "RBBB",
	"Incomplete right bundle branch": "IRBBB",
	"Left anterior fascicular block": "LAFB",
	"Left ventricular hypertrophy":   "LVH",
	"ST elevation":                   "STE",
	"ST depression":                  "STD",
	"T wave inversion":               "INVT",
	"Long QT":                        "LQT",
	"Pacemaker rhythm":               "PACE",
	"Noise":                          "NOISE",
	"Normal ECG":                     "NORM",
}

// Table is read-only after construction and safe for concurrent use.
type Table struct {
	labels map[string]string
}

// Default returns the built-in table.
func Default() *Table {
	return New(defaults)
}

// New copies m into a new table.
func New(m map[string]string) *Table {
	t := &Table{labels: make(map[string]string, len(m))}
	for k, v := range m {
		t.labels[k] = v
	}
	return t
}

// Load reads a YAML mapping of name: label from path and layers it over the built-in table.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label table: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse label table %s: %w", path, err)
	}

	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return New(merged), nil
}

// Lookup returns the label for a finding name.
func (t *Table) Lookup(name string) (string, bool) {
	label, ok := t.labels[name]
	return label, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.labels)
}

// Names returns the known names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.labels))
	for name := range t.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Relabel walks an annotation document (a list of groups, each with a "group_data" list of
// views) and overwrites every view's "label" with the table entry for its "name". Other fields
// are left untouched.
func (t *Table) Relabel(doc []map[string]any) error {
	for gi, group := range doc {
		raw, ok := group["group_data"]
		if !ok {
			return fmt.Errorf("%w: group %d has no group_data", ErrMalformed, gi)
		}
		views, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%w: group %d group_data is not a list", ErrMalformed, gi)
		}
		for vi, v := range views {
			view, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: group %d view %d is not an object", ErrMalformed, gi, vi)
			}
			name, ok := view["name"].(string)
			if !ok {
				return fmt.Errorf("%w: group %d view %d has no name", ErrMalformed, gi, vi)
			}
			label, ok := t.labels[name]
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownName, name)
			}
			view["label"] = label
		}
	}
	return nil
}

// DefaultDocument is served when a recording has no annotation yet.
func DefaultDocument() []map[string]any {
	return []map[string]any{
		{"group_name": "rhythm", "group_data": []any{}},
		{"group_name": "conduction", "group_data": []any{}},
		{"group_name": "morphology", "group_data": []any{}},
	}
}
