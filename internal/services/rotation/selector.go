package rotation

import (
	"sort"
	"time"

	"github.com/j-veylop/codex-switcher-tui/internal/models"
)

// exhaustionCutoff is the used percent at which a window is treated as
// spent for switch-target purposes.
const exhaustionCutoff = 99.0

// DefaultCandidateLimit bounds how many ranked candidates are surfaced.
const DefaultCandidateLimit = 4

// eligible reports whether an account can serve as a manual switch target.
func eligible(acc models.Account) bool {
	if acc.IsTokenExpired {
		return false
	}
	if acc.PrimaryUsedPercent() >= exhaustionCutoff {
		return false
	}
	if acc.SecondaryUsedPercent() >= exhaustionCutoff {
		return false
	}
	return true
}

// BestSwitchTarget returns the highest scoring eligible account, or nil
// when every account is expired or exhausted. The active account is a
// valid best target; staying put can be the right answer.
func BestSwitchTarget(accounts []models.Account, now time.Time) *models.Account {
	var best *models.Account
	var bestScore float64

	for i := range accounts {
		acc := accounts[i]
		if !eligible(acc) {
			continue
		}
		score := Score(acc, now)
		if best == nil || score > bestScore {
			clone := acc.Clone()
			best = &clone
			bestScore = score
		}
	}
	return best
}

// RankedCandidates returns up to limit eligible accounts other than the
// active one, best score first. A limit of zero or less uses the default.
func RankedCandidates(accounts []models.Account, now time.Time, limit int) []models.Account {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	candidates := make([]models.Account, 0, len(accounts))
	for i := range accounts {
		acc := accounts[i]
		if acc.IsActive || !eligible(acc) {
			continue
		}
		candidates = append(candidates, acc.Clone())
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return Score(candidates[i], now) > Score(candidates[j], now)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// AutoSwitchTarget returns the best account to rotate to when the active
// one has crossed the usage limit, or nil when no viable candidate exists.
// Candidates below the limit in both windows and not expired qualify.
func AutoSwitchTarget(accounts []models.Account, usedPercentLimit float64, now time.Time) *models.Account {
	var best *models.Account
	var bestScore float64

	for i := range accounts {
		acc := accounts[i]
		if acc.IsActive || acc.IsTokenExpired {
			continue
		}
		if acc.PrimaryUsedPercent() >= usedPercentLimit {
			continue
		}
		if acc.SecondaryUsedPercent() >= usedPercentLimit {
			continue
		}
		score := Score(acc, now)
		if best == nil || score > bestScore {
			clone := acc.Clone()
			best = &clone
			bestScore = score
		}
	}
	return best
}

// ShouldAutoSwitch reports whether the active account has crossed the
// limit in either window or carries an expired token. A missing active
// account never triggers a switch.
func ShouldAutoSwitch(active *models.Account, usedPercentLimit float64) bool {
	if active == nil {
		return false
	}
	if active.IsTokenExpired {
		return true
	}
	if active.PrimaryUsedPercent() >= usedPercentLimit {
		return true
	}
	if active.SecondaryUsedPercent() >= usedPercentLimit {
		return true
	}
	return false
}
