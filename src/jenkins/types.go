package jenkins

// atomFeed is the body of /rssLatest: one entry per job, holding its latest build.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

// atomEntry titles look like "app-build #42 (back to normal)".
type atomEntry struct {
	Title   string   `xml:"title"`
	Updated string   `xml:"updated"`
	Link    atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// lastBuild is the subset of /job/<name>/lastBuild/api/xml the bot reads.
// The root element name depends on the job type (freeStyleBuild, workflowRun, ...).
type lastBuild struct {
	FullDisplayName string `xml:"fullDisplayName"`
	Building        bool   `xml:"building"`
	Result          string `xml:"result"`
	URL             string `xml:"url"`
	Number          int    `xml:"number"`
}
