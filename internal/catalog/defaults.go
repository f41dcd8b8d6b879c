package catalog

// Built-in default catalogs. They keep a headless run viable when the
// data directory is missing or fails validation: at least one tier-0
// recipe, three distinct tiers, all three order channels.

func defaultRecipes() []Recipe {
	return []Recipe{
		{
			Key:          "margherita",
			DisplayName:  "Margherita",
			SellPrice:    12,
			SLA:          11.0,
			UnlockTier:   0,
			CookTime:     8.0,
			CookTemp:     "medium",
			Difficulty:   1,
			Base:         "rolled_pizza_base",
			Sauce:        "tomato_sauce",
			Cheese:       "sliced_mozzarella",
			Toppings:     []string{"fresh_basil"},
			PostOven:     nil,
			DemandWeight: 1.0,
		},
		{
			Key:          "pepperoni",
			DisplayName:  "Pepperoni",
			SellPrice:    15,
			SLA:          10.0,
			UnlockTier:   1,
			CookTime:     7.5,
			CookTemp:     "high",
			Difficulty:   2,
			Base:         "rolled_pizza_base",
			Sauce:        "tomato_sauce",
			Cheese:       "shredded_cheese",
			Toppings:     []string{"sliced_pepperoni"},
			PostOven:     nil,
			DemandWeight: 1.0,
		},
		{
			Key:          "veggie",
			DisplayName:  "Veggie Deluxe",
			SellPrice:    17,
			SLA:          9.5,
			UnlockTier:   2,
			CookTime:     8.2,
			CookTemp:     "medium",
			Difficulty:   2,
			Base:         "rolled_pizza_base",
			Sauce:        "tomato_sauce",
			Cheese:       "shredded_cheese",
			Toppings:     []string{"sliced_pepper", "sliced_mushroom", "diced_onion"},
			PostOven:     nil,
			DemandWeight: 1.0,
		},
	}
}

func defaultChannels() []Channel {
	return []Channel{
		{
			Key:                          "delivery",
			DisplayName:                  "Delivery",
			RewardMultiplier:             1.0,
			SLAMultiplier:                1.0,
			DemandWeight:                 1.0,
			DeliveryModes:                []string{"drone", "scooter"},
			MinReputation:                0.0,
			MinRecipeDifficulty:          1,
			MaxRecipeDifficulty:          5,
			MaxActiveOrders:              8,
			LateRewardMultiplier:         1.0,
			MissedOrderPenaltyMultiplier: 1.0,
			GraceWindow:                  3.0,
		},
		{
			Key:                          "eat_in",
			DisplayName:                  "Eat-in",
			RewardMultiplier:             1.15,
			SLAMultiplier:                1.2,
			DemandWeight:                 0.65,
			DeliveryModes:                []string{"scooter"},
			CounterService:               true,
			MinReputation:                25.0,
			MinRecipeDifficulty:          2,
			MaxRecipeDifficulty:          5,
			MaxActiveOrders:              4,
			LateRewardMultiplier:         0.7,
			MissedOrderPenaltyMultiplier: 1.25,
			GraceWindow:                  2.0,
		},
		{
			Key:                          "takeaway",
			DisplayName:                  "Takeaway",
			RewardMultiplier:             0.85,
			SLAMultiplier:                1.35,
			DemandWeight:                 0.75,
			DeliveryModes:                []string{"scooter"},
			MinReputation:                10.0,
			MinRecipeDifficulty:          1,
			MaxRecipeDifficulty:          3,
			MaxActiveOrders:              6,
			LateRewardMultiplier:         0.9,
			MissedOrderPenaltyMultiplier: 0.8,
			GraceWindow:                  4.0,
		},
	}
}

func defaultCommercials() []Commercial {
	return []Commercial{
		{
			Key:              "campaigns",
			DisplayName:      "Campaigns",
			ActivationCost:   120,
			DemandMultiplier: 1.25,
			RewardMultiplier: 1.0,
			Duration:         0,
		},
		{
			Key:              "franchise",
			DisplayName:      "Franchise",
			ActivationCost:   180,
			DemandMultiplier: 1.15,
			RewardMultiplier: 1.08,
			RequiredResearch: "franchise_system",
			Duration:         0,
		},
		{
			Key:              "promos",
			DisplayName:      "Promos",
			ActivationCost:   90,
			DemandMultiplier: 1.0,
			RewardMultiplier: 1.1,
			Duration:         0,
		},
	}
}

func defaultResearch() []ResearchNode {
	return []ResearchNode{
		{Key: "ovens", DisplayName: "Oven Foundations", Branch: "cooking", Cost: 12.0},
		{Key: "bots", DisplayName: "Bot Docks", Branch: "automation", Cost: 28.0},
		{Key: "turbo_oven", DisplayName: "Turbo Ovens", Branch: "cooking", Cost: 40.0},
		{Key: "hygiene_training", DisplayName: "Hygiene Training", Branch: "automation", Cost: 50.0},
		{Key: "turbo_belts", DisplayName: "Turbo Belts", Branch: "logistics", Cost: 55.0},
		{Key: "priority_dispatch", DisplayName: "Priority Dispatch", Branch: "logistics", Cost: 85.0},
		{Key: "precision_cooking", DisplayName: "Precision Cooking", Branch: "cooking", Cost: 95.0, Prerequisites: []string{"turbo_oven"}},
		{Key: "double_spawn", DisplayName: "Double Spawn", Branch: "logistics", Cost: 140.0},
		{Key: "second_location", DisplayName: "Second Location", Branch: "expansion", Cost: 180.0},
		{Key: "franchise_system", DisplayName: "Franchise System", Branch: "expansion", Cost: 320.0},
	}
}

// Default returns the built-in catalog used when external data is
// missing or invalid.
func Default() *Catalog {
	return &Catalog{
		Recipes:     defaultRecipes(),
		Channels:    defaultChannels(),
		Commercials: defaultCommercials(),
		Research:    defaultResearch(),
	}
}
