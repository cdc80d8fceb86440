package devenv

// LiveSourceConfig points tests at a real publication, it lives in
// dev/.state/untis_live.json5 and is never committed.
type LiveSourceConfig struct {
	BaseUrl         string `json:"base_url"`
	WeekIndexPath   string `json:"week_index_path"`
	WeekPagePattern string `json:"week_page_pattern"`
}
