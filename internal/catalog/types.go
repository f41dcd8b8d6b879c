package catalog

// Recipe describes a sellable pizza and its production parameters.
// Recipes are immutable once loaded; the simulation only reads them.
type Recipe struct {
	Key          string   `json:"key"`
	DisplayName  string   `json:"display_name"`
	SellPrice    int      `json:"sell_price"`
	SLA          float64  `json:"sla"`
	UnlockTier   int      `json:"unlock_tier"`
	CookTime     float64  `json:"cook_time"`
	CookTemp     string   `json:"cook_temp"`
	Difficulty   int      `json:"difficulty"`
	Base         string   `json:"base"`
	Sauce        string   `json:"sauce"`
	Cheese       string   `json:"cheese"`
	Toppings     []string `json:"toppings"`
	PostOven     []string `json:"post_oven"`
	DemandWeight float64  `json:"demand_weight"`
}

// Channel describes an order channel (delivery, takeaway, eat-in) and
// its penalty/reward tuning.
//
// CounterService marks a channel served on the premises: fulfilled
// orders settle immediately instead of going out as a vehicle trip,
// and DeliveryModes is ignored.
//
// LateRewardMultiplier is the fraction of the reward still paid when a
// delivery lands inside the grace window past its deadline.
// MissedOrderPenaltyMultiplier scales the flat missed-order penalty.
// GraceWindow is measured in simulated seconds past the deadline.
type Channel struct {
	Key                          string   `json:"key"`
	DisplayName                  string   `json:"display_name"`
	RewardMultiplier             float64  `json:"reward_multiplier"`
	SLAMultiplier                float64  `json:"sla_multiplier"`
	DemandWeight                 float64  `json:"demand_weight"`
	DeliveryModes                []string `json:"delivery_modes"`
	CounterService               bool     `json:"counter_service"`
	MinReputation                float64  `json:"min_reputation"`
	MinRecipeDifficulty          int      `json:"min_recipe_difficulty"`
	MaxRecipeDifficulty          int      `json:"max_recipe_difficulty"`
	MaxActiveOrders              int      `json:"max_active_orders"`
	LateRewardMultiplier         float64  `json:"late_reward_multiplier"`
	MissedOrderPenaltyMultiplier float64  `json:"missed_order_penalty_multiplier"`
	GraceWindow                  float64  `json:"grace_window"`
}

// Commercial describes a marketing campaign: a one-time activation
// charge buying a timed demand/reward modifier.
// Duration 0 means the campaign stays active until replaced.
type Commercial struct {
	Key              string  `json:"key"`
	DisplayName      string  `json:"display_name"`
	ActivationCost   int     `json:"activation_cost"`
	DemandMultiplier float64 `json:"demand_multiplier"`
	RewardMultiplier float64 `json:"reward_multiplier"`
	RequiredResearch string  `json:"required_research"`
	Duration         float64 `json:"duration"`
}

// ResearchNode is one entry of the prerequisite-gated research graph.
type ResearchNode struct {
	Key           string   `json:"key"`
	DisplayName   string   `json:"display_name"`
	Branch        string   `json:"branch"`
	Cost          float64  `json:"cost"`
	Prerequisites []string `json:"prerequisites"`
}

// Catalog bundles the four immutable data catalogs the simulation
// consumes. Slices are kept in a deterministic order (recipes,
// channels and commercials sorted by key; research by cost then key)
// so that weighted draws walk entries identically on every run.
type Catalog struct {
	Recipes     []Recipe
	Channels    []Channel
	Commercials []Commercial
	Research    []ResearchNode
}

// Recipe returns the recipe with the given key, or nil.
func (c *Catalog) Recipe(key string) *Recipe {
	for i := range c.Recipes {
		if c.Recipes[i].Key == key {
			return &c.Recipes[i]
		}
	}
	return nil
}

// Channel returns the channel with the given key, or nil.
func (c *Catalog) Channel(key string) *Channel {
	for i := range c.Channels {
		if c.Channels[i].Key == key {
			return &c.Channels[i]
		}
	}
	return nil
}

// Commercial returns the commercial with the given key, or nil.
func (c *Catalog) Commercial(key string) *Commercial {
	for i := range c.Commercials {
		if c.Commercials[i].Key == key {
			return &c.Commercials[i]
		}
	}
	return nil
}

// ResearchNode returns the research node with the given key, or nil.
func (c *Catalog) ResearchNode(key string) *ResearchNode {
	for i := range c.Research {
		if c.Research[i].Key == key {
			return &c.Research[i]
		}
	}
	return nil
}
