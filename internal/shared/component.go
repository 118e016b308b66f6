package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sirius_reviews/internal/domain"
)

// parameter keys of config.json
const (
	KeyUsername     = "username"
	KeyPassword     = "#password"
	KeyPlainPass    = "password"
	KeyHostname     = "hostname"
	KeyApplications = "applications"
)

// OutputMapping is one entry of storage.output.tables.
type OutputMapping struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type componentFile struct {
	Parameters map[string]any `json:"parameters"`
	Storage    struct {
		Output struct {
			Tables []OutputMapping `json:"tables"`
		} `json:"output"`
	} `json:"storage"`
}

// Job is a validated run description.
type Job struct {
	Credentials  domain.Credentials
	Applications []string
	Output       OutputMapping
	TablesDir    string
}

// LoadJob reads {dataDir}/config.json and validates it.
func LoadJob(dataDir string) (Job, error) {
	b, err := os.ReadFile(filepath.Join(dataDir, "config.json"))
	if err != nil {
		return Job{}, fmt.Errorf("%w: read config.json: %v", domain.ErrConfiguration, err)
	}
	return ParseJob(b, filepath.Join(dataDir, "out", "tables"))
}

// ParseJob validates a config.json payload. It never touches the network.
func ParseJob(b []byte, tablesDir string) (Job, error) {
	var f componentFile
	if err := json.Unmarshal(b, &f); err != nil {
		return Job{}, fmt.Errorf("%w: decode config.json: %v", domain.ErrConfiguration, err)
	}

	if n := len(f.Storage.Output.Tables); n != 1 {
		return Job{}, fmt.Errorf("%w: output table mapping with one entry is required, got %d", domain.ErrConfiguration, n)
	}
	out := f.Storage.Output.Tables[0]
	if strings.TrimSpace(out.Source) == "" {
		return Job{}, fmt.Errorf("%w: output table mapping has no source", domain.ErrConfiguration)
	}
	if !filepath.IsLocal(out.Source) {
		return Job{}, fmt.Errorf("%w: output source %q escapes the tables folder", domain.ErrConfiguration, out.Source)
	}

	p := f.Parameters
	var missing []string
	str := func(key string, allowEmpty bool) string {
		s, ok := p[key].(string)
		if !ok || (!allowEmpty && s == "") {
			missing = append(missing, key)
		}
		return s
	}
	user := str(KeyUsername, false)
	host := str(KeyHostname, false)
	apps := str(KeyApplications, true)
	pass, ok := p[KeyPassword].(string)
	if !ok || pass == "" {
		pass, ok = p[KeyPlainPass].(string)
		if !ok || pass == "" {
			missing = append(missing, KeyPassword)
		}
	}
	if len(missing) > 0 {
		return Job{}, fmt.Errorf("%w: missing parameters: %s", domain.ErrConfiguration, strings.Join(missing, ", "))
	}

	return Job{
		Credentials:  domain.Credentials{Username: user, Password: pass, Hostname: host},
		Applications: SplitApplications(apps),
		Output:       out,
		TablesDir:    tablesDir,
	}, nil
}

// SplitApplications splits on commas without trimming, so "" yields [""].
func SplitApplications(s string) []string {
	return strings.Split(s, ",")
}
