package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.TokenTTLMinutes == 0 {
		cfg.Admin.TokenTTLMinutes = 60
	}
	if cfg.Admin.Issuer == "" {
		cfg.Admin.Issuer = "granthalaya"
	}
	if cfg.Storage.ArtifactsDir == "" {
		cfg.Storage.ArtifactsDir = "/usr/local/var/granthalaya/data/artifacts"
	}
	if cfg.Storage.JournalPath == "" {
		cfg.Storage.JournalPath = "/usr/local/var/granthalaya/data/db/journal.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/granthalaya/data/indices/verses"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "/usr/local/etc/granthalaya/catalog.yaml"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.SnippetLength == 0 {
		cfg.Search.SnippetLength = 160
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 2
	}
}
