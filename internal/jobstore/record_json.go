package jobstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var errNullRecord = errors.New("record is null")

// jobFields has Job's layout without its JSON methods
type jobFields Job

// jobKeys holds the JSON names of Job's declared fields
var jobKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(jobFields{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}()

// UnmarshalJSON decodes the declared fields and stashes the rest in Extra
func (j *Job) UnmarshalJSON(data []byte) error {
	var f jobFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if jobKeys[k] {
			delete(raw, k)
		}
	}

	*j = Job(f)
	j.Extra = nil
	if len(raw) > 0 {
		j.Extra = raw
	}
	return nil
}

// MarshalJSON writes the declared fields followed by Extra in key order
func (j Job) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(jobFields(j))
	if err != nil || len(j.Extra) == 0 {
		return known, err
	}

	keys := make([]string, 0, len(j.Extra))
	for k := range j.Extra {
		if !jobKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(j.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// checkStored rejects records that cannot be a committed job posting
func checkStored(c Collection) error {
	seen := make(map[int]bool, len(c))
	for i, j := range c {
		if j.ID < 1 {
			return fmt.Errorf("record %d: id must be positive, got %d", i, j.ID)
		}
		if seen[j.ID] {
			return fmt.Errorf("record %d: duplicate id %d", i, j.ID)
		}
		seen[j.ID] = true

		var missing []string
		if strings.TrimSpace(j.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(j.Description) == "" {
			missing = append(missing, "description")
		}
		if strings.TrimSpace(j.CompanyName) == "" {
			missing = append(missing, "companyName")
		}
		if len(missing) > 0 {
			return fmt.Errorf("record %d (id %d): missing %s", i, j.ID, strings.Join(missing, ", "))
		}
	}
	return nil
}
