package domain

// Company is one board on a platform.
type Company struct {
	Slug string // boards-api token or lever slug
	Name string // display name, stored as Job.Company
}

func (c Company) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Slug
}

// SourceRef pairs a platform with one company on it.
type SourceRef struct {
	Platform string
	Company  Company
}

func (r SourceRef) ID() string { return r.Platform + ":" + r.Company.Slug }
