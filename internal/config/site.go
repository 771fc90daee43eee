package config

// SiteConfig holds the audit settings for a single configured site.
type SiteConfig struct {
	// Name is the human-readable site name used in reports.
	Name string `yaml:"name,omitempty"`

	// Domain is the site's host, e.g. "www.example.com".
	// Used to classify links as internal or external.
	Domain string `yaml:"domain,omitempty"`

	// SitemapURL is where the page list is fetched from.
	// Defaults to https://{domain}/sitemap.xml when empty.
	SitemapURL string `yaml:"sitemapUrl,omitempty"`

	// BoardID is the task-tracker board new tasks are filed on.
	BoardID string `yaml:"boardId,omitempty"`

	// RulesFile is the path to the site's rule file. Relative paths are
	// resolved against the config file's directory.
	RulesFile string `yaml:"rulesFile,omitempty"`

	// DaysToCheck overrides the global sitemap recency filter for this site.
	// If zero, the global value is used.
	DaysToCheck int `yaml:"daysToCheck,omitempty"`

	// MaxPages overrides the global page cap for this site.
	// If zero, the global value is used.
	MaxPages int `yaml:"maxPages,omitempty"`

	// EnableLLM overrides the global semantic-evaluation switch.
	EnableLLM *bool `yaml:"enableLLM,omitempty"`

	// Headers are custom HTTP headers to include in page fetches.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Enabled controls whether the site participates in multi-site runs.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// File represents the structure of the pagelint.yml configuration file.
type File struct {
	// Sites maps site ids to their configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a site id.
// It merges the site-specific configuration over the defaults.
// The second return value is false when the site id is not configured.
func (cf *File) GetSiteConfig(siteID string) (SiteConfig, bool) {
	result := cf.Defaults

	site, ok := cf.Sites[siteID]
	if !ok {
		return result, false
	}

	if site.Name != "" {
		result.Name = site.Name
	}
	if site.Domain != "" {
		result.Domain = site.Domain
	}
	if site.SitemapURL != "" {
		result.SitemapURL = site.SitemapURL
	}
	if site.BoardID != "" {
		result.BoardID = site.BoardID
	}
	if site.RulesFile != "" {
		result.RulesFile = site.RulesFile
	}
	if site.DaysToCheck != 0 {
		result.DaysToCheck = site.DaysToCheck
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if site.EnableLLM != nil {
		result.EnableLLM = site.EnableLLM
	}
	if site.Enabled != nil {
		result.Enabled = site.Enabled
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}

	return result, true
}

// SitemapOrDefault returns the configured sitemap URL, or the conventional
// /sitemap.xml location on the site's domain.
func (sc SiteConfig) SitemapOrDefault() string {
	if sc.SitemapURL != "" {
		return sc.SitemapURL
	}
	if sc.Domain != "" {
		return "https://" + sc.Domain + "/sitemap.xml"
	}
	return ""
}

// IsEnabled reports whether the site participates in audits.
// Sites are enabled unless explicitly disabled.
func (sc SiteConfig) IsEnabled() bool {
	return sc.Enabled == nil || *sc.Enabled
}
