package bot

import (
	"fmt"
	"strings"
)

// ParseNameArg extracts a player name from command arguments. Names may
// contain spaces; runs of whitespace collapse to one.
func ParseNameArg(args string) (string, error) {
	name := strings.Join(strings.Fields(args), " ")
	if name == "" {
		return "", fmt.Errorf("player name is required")
	}
	return name, nil
}
