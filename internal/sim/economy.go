package sim

// Economy is the session ledger. Cash never goes negative: debits are
// rejected up front, penalties clamp to whatever cash remains.
type Economy struct {
	Cash       int     `json:"cash"`
	Revenue    int     `json:"revenue"`
	Spend      int     `json:"spend"`
	Waste      int     `json:"waste"`
	Reputation float64 `json:"reputation"`
}

// creditRevenue adds income to cash and the revenue counter.
func (e *Economy) creditRevenue(amount int) {
	if amount <= 0 {
		return
	}
	e.Cash += amount
	e.Revenue += amount
}

// debit spends cash, rejecting the whole amount when it would
// overdraw. No partial charge ever happens.
func (e *Economy) debit(amount int, action string) error {
	if amount <= 0 {
		return nil
	}
	if e.Cash < amount {
		return &EconomyError{Action: action, Cost: amount, Cash: e.Cash}
	}
	e.Cash -= amount
	e.Spend += amount
	return nil
}

// penalize charges up to amount, clamped so cash stays non-negative.
// Returns what was actually charged. Penalties are consequences of
// play, not player actions, so they take what they can instead of
// being rejected.
func (e *Economy) penalize(amount int) int {
	if amount <= 0 {
		return 0
	}
	if amount > e.Cash {
		amount = e.Cash
	}
	e.Cash -= amount
	e.Spend += amount
	return amount
}

// EconomySummary is the read-only ledger view.
type EconomySummary struct {
	Cash       int     `json:"cash"`
	Revenue    int     `json:"revenue"`
	Spend      int     `json:"spend"`
	Waste      int     `json:"waste"`
	Reputation float64 `json:"reputation"`

	ActiveCommercial string  `json:"active_commercial,omitempty"`
	CampaignExpiry   float64 `json:"campaign_expiry,omitempty"`
}

// EconomySummary returns a copy of the ledger plus campaign state.
func (s *Sim) EconomySummary() EconomySummary {
	return EconomySummary{
		Cash:             s.economy.Cash,
		Revenue:          s.economy.Revenue,
		Spend:            s.economy.Spend,
		Waste:            s.economy.Waste,
		Reputation:       s.economy.Reputation,
		ActiveCommercial: s.commercial,
		CampaignExpiry:   s.campaignExpiry,
	}
}
