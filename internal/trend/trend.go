// Package trend finds hashtags that co-occur with a searched hashtag across
// several distinct accounts.
package trend

import (
	"fmt"
	"sort"

	"github.com/ppiankov/tagscout/internal/source"
)

// DefaultMinUsers is the number of distinct accounts a hashtag needs to count.
const DefaultMinUsers = 2

// Trend is a hashtag seen in posts from several accounts.
type Trend struct {
	Hashtag  string   `json:"hashtag"`
	Accounts int      `json:"accounts"` // distinct accounts, anonymous ones included
	Users    []string `json:"users"`    // known usernames, sorted
	Posts    int      `json:"posts"`
}

// Find returns hashtags other than searched that appear in posts from at least
// minUsers distinct accounts, most widespread first. Posts with a placeholder
// username each count as a separate account since they cannot be told apart.
func Find(posts []source.Post, searched string, minUsers int) []Trend {
	if minUsers < 2 {
		minUsers = DefaultMinUsers
	}
	searched = source.NormalizeHashtag(searched)

	users := make(map[string]map[string]bool)
	counts := make(map[string]int)

	for i, p := range posts {
		user := p.Username
		if user == "" || user == "unknown" || user == "unknown_user" {
			user = fmt.Sprintf("\x00%d", i)
		}
		for _, tag := range p.Hashtags {
			tag = source.NormalizeHashtag(tag)
			if tag == "" || tag == searched {
				continue
			}
			if users[tag] == nil {
				users[tag] = make(map[string]bool)
			}
			users[tag][user] = true
			counts[tag]++
		}
	}

	var trends []Trend
	for tag, set := range users {
		if len(set) < minUsers {
			continue
		}
		names := named(set)
		sort.Strings(names)
		trends = append(trends, Trend{Hashtag: tag, Accounts: len(set), Users: names, Posts: counts[tag]})
	}

	// Sort by account count descending, then hashtag alphabetically
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Accounts != trends[j].Accounts {
			return trends[i].Accounts > trends[j].Accounts
		}
		return trends[i].Hashtag < trends[j].Hashtag
	})

	return trends
}

// named returns the keys of set without anonymous placeholders.
func named(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if len(k) > 0 && k[0] == 0 {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}
