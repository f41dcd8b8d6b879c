package sim

// KPI is the derived metrics snapshot. It is recomputed from current
// state on demand and never stored independently.
type KPI struct {
	Bottleneck    float64 `json:"bottleneck_pct"`
	Hygiene       float64 `json:"hygiene_pct"`
	Throughput    float64 `json:"throughput"`
	OnTimeRate    float64 `json:"sla_on_time_rate"`
	ExpansionTier int     `json:"expansion_tier"`
	ResearchXP    float64 `json:"research_xp"`
}

// KPISnapshot recomputes the derived metrics.
//
// Bottleneck is the fraction of processors and ovens busy-and-blocked,
// computed during the last flow pass. Throughput is finished items per
// simulated second over the whole run. The on-time rate covers a
// trailing window of recent resolutions and reads 100 while no order
// has resolved yet.
func (s *Sim) KPISnapshot() KPI {
	throughput := 0.0
	if s.time > 0 {
		throughput = float64(s.produced) / s.time
	}

	onTime := 100.0
	if s.slaFilled > 0 {
		hits := 0
		for i := 0; i < s.slaFilled; i++ {
			if s.slaWindow[i] {
				hits++
			}
		}
		onTime = float64(hits) / float64(s.slaFilled) * 100.0
	}

	return KPI{
		Bottleneck:    s.bottleneck,
		Hygiene:       s.hygiene,
		Throughput:    throughput,
		OnTimeRate:    onTime,
		ExpansionTier: s.expansionLevel,
		ResearchXP:    s.research.Points,
	}
}

// Counters exposes the raw production ledger for harnesses and tests.
type Counters struct {
	Spawned  int64 `json:"spawned"`
	InFlight int64 `json:"in_flight"`
	Wasted   int64 `json:"wasted"`
	Produced int64 `json:"produced"`
	Resolved int64 `json:"resolved"`
	OnTime   int64 `json:"ontime"`
	Late     int64 `json:"late"`
	Missed   int64 `json:"missed"`
}

// Counters returns a copy of the production and resolution counters.
func (s *Sim) Counters() Counters {
	return Counters{
		Spawned:  s.spawned,
		InFlight: int64(len(s.items)),
		Wasted:   s.wasted,
		Produced: s.produced,
		Resolved: s.resolved,
		OnTime:   s.ontime,
		Late:     s.late,
		Missed:   s.missed,
	}
}

// ConservationOK reports whether the item ledger balances: every item
// ever spawned is either still in flight, wasted, or produced.
func (s *Sim) ConservationOK() bool {
	return s.spawned == int64(len(s.items))+s.wasted+s.produced
}
