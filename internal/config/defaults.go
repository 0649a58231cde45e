package config

// Default values applied after unmarshalling. Kept in one place so the
// daemon and CLI paths agree on what an unspecified field means.
const (
	DefaultBranch        = "main"
	DefaultPythonVersion = "3.9"
	DefaultSiteOutput    = "./site"
	DefaultPagesBranch   = "gh-pages"
	DefaultPagesSubdir   = "docs"
	DefaultAuthorName    = "GitHub Action"
	DefaultAuthorEmail   = "action@github.com"
	DefaultHistoryPath   = "./docpress.db"
)

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Source.Branch == "" {
		c.Source.Branch = DefaultBranch
	}
	if c.Source.Name == "" {
		c.Source.Name = repoNameFromURL(c.Source.URL)
	}

	if c.Python.Version == "" {
		c.Python.Version = DefaultPythonVersion
	}
	if len(c.Python.SearchPaths) == 0 {
		c.Python.SearchPaths = []string{"."}
	}

	if c.Site.Title == "" {
		c.Site.Title = "API Documentation"
	}
	if c.Site.Output == "" {
		c.Site.Output = DefaultSiteOutput
	}

	if c.Publish.URL == "" {
		// Pages branch lives in the source repository unless configured otherwise.
		c.Publish.URL = c.Source.URL
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = DefaultPagesBranch
	}
	if c.Publish.Subdir == "" {
		c.Publish.Subdir = DefaultPagesSubdir
	}
	if c.Publish.AuthorName == "" {
		c.Publish.AuthorName = DefaultAuthorName
	}
	if c.Publish.AuthorEmail == "" {
		c.Publish.AuthorEmail = DefaultAuthorEmail
	}
	if c.Publish.Auth == nil {
		c.Publish.Auth = c.Source.Auth
	}

	if c.History == nil {
		c.History = &HistoryConfig{}
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}

	if c.Daemon != nil {
		c.Daemon.applyDefaults()
	}
}

// repoNameFromURL derives a short repository name from a clone URL
// ("https://host/owner/project.git" -> "project").
func repoNameFromURL(url string) string {
	if url == "" {
		return ""
	}
	name := url
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			name = name[i+1:]
			break
		}
	}
	if len(name) > 4 && name[len(name)-4:] == ".git" {
		name = name[:len(name)-4]
	}
	return name
}
