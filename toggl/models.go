package toggl

import "time"

// Toggl Track API v9 payloads. Only the fields the report needs.

type apiClient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type apiProject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ClientID int64  `json:"client_id"`
}

type apiTimeEntry struct {
	ID          int64      `json:"id"`
	ProjectID   int64      `json:"project_id"`
	Start       time.Time  `json:"start"`
	Stop        *time.Time `json:"stop"` // nil while the entry is running
	Description string     `json:"description"`
}

// Entry is a fetched time interval with its client and project names
// resolved. Client and Project are empty when the entry has no project or
// the project has no client.
type Entry struct {
	Client      string
	Project     string
	Start       time.Time
	Stop        time.Time
	Description string
}
