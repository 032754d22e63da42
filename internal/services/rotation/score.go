// Package rotation ranks credential profiles by remaining headroom and
// decides when and where to switch.
package rotation

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

// unknownResetPenalty outranks any real hours-until-reset value, so an
// account with an unknown weekly reset always scores below one whose reset
// time is known.
const unknownResetPenalty = 10000

var nameCollator = collate.New(language.Und, collate.IgnoreCase)

// Score computes a candidate's desirability. Higher is better. Priority
// dominates, then combined remaining headroom, then how soon the weekly
// window resets.
func Score(acc models.Account, now time.Time) float64 {
	primaryUsed := acc.PrimaryUsedPercent()
	secondaryUsed := acc.SecondaryUsedPercent()

	score := float64(acc.Priority)*1000 + (200-primaryUsed-secondaryUsed)*5

	resetsAt := acc.SecondaryResetsAt()
	if resetsAt <= 0 {
		score -= unknownResetPenalty
	} else {
		hours := float64(resetsAt-now.Unix()) / 3600
		if hours < 0 {
			hours = 0
		}
		score -= hours
	}

	return score
}

// SortByExhaustion orders accounts for display: those with weekly headroom
// left come first, then by whole days until the weekly reset, then by name.
func SortByExhaustion(accounts []models.Account, now time.Time) {
	sort.SliceStable(accounts, func(i, j int) bool {
		a, b := accounts[i], accounts[j]

		aOK := a.SecondaryUsedPercent() <= 90
		bOK := b.SecondaryUsedPercent() <= 90
		if aOK != bOK {
			return aOK
		}

		aDays := daysUntilReset(a, now)
		bDays := daysUntilReset(b, now)
		if aDays != bDays {
			return aDays < bDays
		}

		return nameCollator.CompareString(strings.ToLower(a.Name), strings.ToLower(b.Name)) < 0
	})
}

// daysUntilReset returns whole days until the weekly window resets.
// Unknown resets sort last within their group.
func daysUntilReset(acc models.Account, now time.Time) int64 {
	resetsAt := acc.SecondaryResetsAt()
	if resetsAt <= 0 {
		return 1 << 30
	}
	secs := resetsAt - now.Unix()
	if secs < 0 {
		secs = 0
	}
	return secs / 86400
}
