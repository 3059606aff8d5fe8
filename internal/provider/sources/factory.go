// Package sources selects the DataSource implementation named in configuration.
package sources

import (
	"fmt"

	"match_bot/internal/provider"
	"match_bot/internal/provider/leagueofgraphs"
	"match_bot/internal/provider/opgg"
)

// Names lists the supported DATA_SOURCE values.
var Names = []string{leagueofgraphs.Name, opgg.Name}

// New creates the data source for kind.
func New(kind string, get provider.Getter, region string) (provider.DataSource, error) {
	switch kind {
	case leagueofgraphs.Name:
		return leagueofgraphs.New(get, region), nil
	case opgg.Name:
		return opgg.New(get, region), nil
	default:
		return nil, fmt.Errorf("unsupported data source: %s", kind)
	}
}
