package emissions

// DefaultDailyLimitKg is the per-day total above which a submission is flagged.
const DefaultDailyLimitKg = 70.0

// maxFocusActivities caps how many activities Advise recommends reducing.
const maxFocusActivities = 2

// Advice flags an over-limit total and names the activities worth reducing.
type Advice struct {
	LimitKg      float64  `json:"limit_kg"`
	ExceedsLimit bool     `json:"exceeds_limit"`
	ExcessKg     float64  `json:"excess_kg"`
	Focus        []string `json:"focus"`
}

// Advise compares res against limitKg and picks up to two of the highest
// non-zero activities. A non-positive limit uses DefaultDailyLimitKg.
func Advise(res Result, limitKg float64) Advice {
	if limitKg <= 0 {
		limitKg = DefaultDailyLimitKg
	}

	adv := Advice{LimitKg: limitKg, Focus: []string{}}
	if res.Total > limitKg {
		adv.ExceedsLimit = true
		adv.ExcessKg = res.Total - limitKg
	}

	for _, e := range res.Ranked() {
		if len(adv.Focus) == maxFocusActivities {
			break
		}
		if e.Kg == 0 {
			continue
		}
		adv.Focus = append(adv.Focus, e.Activity)
	}
	return adv
}
