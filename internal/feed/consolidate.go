package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/jmfarina/betscan/internal/domain"
)

// startTimeBucket tolerates small kickoff-time differences between
// bookmaker APIs when grouping the same match.
const startTimeBucket = 30 * time.Minute

// Consolidate merges per-bookmaker match lists into one MatchOdds per
// real-world match. Matches are identified by normalized team names plus
// the kickoff time rounded to half an hour; quotes for the same outcome of
// the same market are appended in the order sources were listed, so the
// engine's earliest-listed tie-break stays stable across runs.
//
// Display names, league, and country come from the first source reporting
// the match. When leagues is non-empty, matches outside it are dropped.
func Consolidate(perSource [][]domain.MatchOdds, leagues []string) []domain.MatchOdds {
	allowed := make(map[string]bool, len(leagues))
	for _, l := range leagues {
		allowed[normalizeName(l)] = true
	}

	var order []string
	merged := make(map[string]*domain.MatchOdds)

	for _, matches := range perSource {
		for _, m := range matches {
			if len(allowed) > 0 && !allowed[normalizeName(m.League)] {
				continue
			}
			key := matchKey(m)
			if key == "" {
				continue
			}
			dst, ok := merged[key]
			if !ok {
				cp := m
				cp.EventID = key
				cp.Markets = nil
				merged[key] = &cp
				dst = merged[key]
				order = append(order, key)
			}
			for _, mb := range m.Markets {
				mergeMarket(dst, mb)
			}
		}
	}

	out := make([]domain.MatchOdds, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}
	return out
}

// mergeMarket appends the book's quotes into the match's market of the same
// name, creating market and outcomes as needed. Outcome order follows first
// appearance.
func mergeMarket(dst *domain.MatchOdds, mb domain.MarketBook) {
	var target *domain.MarketBook
	for i := range dst.Markets {
		if dst.Markets[i].Market == mb.Market {
			target = &dst.Markets[i]
			break
		}
	}
	if target == nil {
		dst.Markets = append(dst.Markets, domain.MarketBook{
			EventID: dst.EventID,
			Market:  mb.Market,
		})
		target = &dst.Markets[len(dst.Markets)-1]
	}

	for _, oc := range mb.Outcomes {
		var slot *domain.OutcomeQuotes
		for i := range target.Outcomes {
			if target.Outcomes[i].Label == oc.Label {
				slot = &target.Outcomes[i]
				break
			}
		}
		if slot == nil {
			target.Outcomes = append(target.Outcomes, domain.OutcomeQuotes{Label: oc.Label})
			slot = &target.Outcomes[len(target.Outcomes)-1]
		}
		slot.Quotes = append(slot.Quotes, oc.Quotes...)
	}
}

// matchKey builds the grouping key "home|away|start" from normalized team
// names. Matches without both team names cannot be grouped and are skipped.
func matchKey(m domain.MatchOdds) string {
	home := normalizeTeam(m.HomeTeam)
	away := normalizeTeam(m.AwayTeam)
	if home == "" || away == "" {
		return ""
	}
	if m.StartTime.IsZero() {
		return home + "|" + away
	}
	t := m.StartTime.UTC().Truncate(startTimeBucket)
	return home + "|" + away + "|" + t.Format(time.RFC3339)
}

// teamPrefixes are stripped before comparison so "CA River Plate" and
// "River Plate" group as the same team. Longer prefixes sort first so they
// win over their own abbreviations.
var teamPrefixes = []string{
	"c.a. ", "ca ", "c.d. ", "cd ", "c.f. ", "cf ", "club atletico ", "club ",
	"f.c. ", "fc ", "s.c. ", "sc ", "a.c. ", "ac ", "u.d. ", "ud ", "deportivo ",
}

func init() {
	sort.Slice(teamPrefixes, func(i, j int) bool {
		return len(teamPrefixes[i]) > len(teamPrefixes[j])
	})
}

func normalizeTeam(s string) string {
	s = normalizeName(s)
	if s == "" {
		return ""
	}
	for _, p := range teamPrefixes {
		if strings.HasPrefix(s, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	return s
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
