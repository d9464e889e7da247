package models

// StatusReport is the system status payload served by the API and rendered
// by the status command.
type StatusReport struct {
	Scripture      ScriptureStatus `json:"scripture"`
	Books          int             `json:"books"`
	IndexedVerses  uint64          `json:"indexed_verses"`
	Ingestions     IngestionCounts `json:"ingestions"`
	DiskUsageBytes int64           `json:"disk_usage_bytes,omitempty"`
	Config         StatusConfig    `json:"config"`
}

// ScriptureStatus reports whether a scripture has been ingested and its size.
type ScriptureStatus struct {
	Ingested bool `json:"ingested"`
	Chapters int  `json:"chapters,omitempty"`
	Verses   int  `json:"verses,omitempty"`
}

// StatusConfig echoes the effective storage locations.
type StatusConfig struct {
	ArtifactsDir   string `json:"artifacts_dir"`
	JournalPath    string `json:"journal_path"`
	IndexPath      string `json:"index_path"`
	CatalogPath    string `json:"catalog_path"`
	WatchDirectory string `json:"watch_directory,omitempty"`
}
