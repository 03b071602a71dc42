// Package config also contains per-market matcher configuration surfaces.
package config

// Market binds one matcher deployment: which pricing variant it runs and the
// on-chain identities the daemons address it by.
type Market struct {
	Name      string `yaml:"name"`
	Matcher   string `yaml:"matcher"` // vol|macro|event|jpy|privacy
	ProgramID string `yaml:"program_id"`
	Context   string `yaml:"context"` // matcher context account
	Oracle    string `yaml:"oracle"`  // authorized updater identity
}

// MarketByName finds a configured market entry.
func (c *Config) MarketByName(name string) (Market, bool) {
	for _, m := range c.Markets {
		if m.Name == name {
			return m, true
		}
	}
	return Market{}, false
}
