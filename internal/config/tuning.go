// Package config holds the simulation tuning knobs.
//
// Every knob has a built-in default; an optional pizzatorio.yaml can
// override any subset. Overrides that fail validation are discarded as
// a whole so a bad config file can never produce a half-tuned,
// unrunnable simulation.
package config

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Tuning collects the gameplay constants consumed by the simulation
// core. Values are in simulated seconds unless noted.
type Tuning struct {
	GridWidth  int `mapstructure:"grid_width" validate:"gte=4"`
	GridHeight int `mapstructure:"grid_height" validate:"gte=4"`

	ItemSpawnInterval  float64 `mapstructure:"item_spawn_interval" validate:"gt=0"`
	OrderSpawnInterval float64 `mapstructure:"order_spawn_interval" validate:"gt=0"`

	HygieneEventChance   float64 `mapstructure:"hygiene_event_chance" validate:"gte=0,lte=1"`
	HygieneEventCooldown float64 `mapstructure:"hygiene_event_cooldown" validate:"gte=0"`
	HygieneRecoveryRate  float64 `mapstructure:"hygiene_recovery_rate" validate:"gte=0"`
	HygieneTrainingBonus float64 `mapstructure:"hygiene_training_bonus" validate:"gte=0"`

	ExpansionProgressRate   float64 `mapstructure:"expansion_progress_rate" validate:"gt=0"`
	ExpansionDeliveryBonus  float64 `mapstructure:"expansion_delivery_bonus" validate:"gte=0"`
	ExpansionBaseNeeded     float64 `mapstructure:"expansion_base_needed" validate:"gt=0"`
	FranchiseExpansionBonus float64 `mapstructure:"franchise_expansion_bonus" validate:"gte=1"`

	TurboBeltBonus             float64 `mapstructure:"turbo_belt_bonus" validate:"gte=0"`
	TurboOvenSpeedBonus        float64 `mapstructure:"turbo_oven_speed_bonus" validate:"gte=0"`
	AssemblyTableSpeed         float64 `mapstructure:"assembly_table_speed" validate:"gt=0"`
	BotAutoChargeRate          float64 `mapstructure:"bot_auto_charge_rate" validate:"gte=0"`
	BotAutoDeliveryReduction   float64 `mapstructure:"bot_auto_delivery_reduction" validate:"gte=0"`
	DoubleSpawnIntervalDivisor float64 `mapstructure:"double_spawn_interval_divisor" validate:"gte=1"`

	LateDeliveryPenalty            float64 `mapstructure:"late_delivery_penalty" validate:"gte=0,lte=1"`
	PriorityDispatchLateMultiplier float64 `mapstructure:"priority_dispatch_late_multiplier" validate:"gte=0,lte=1"`
	MissedPenaltyFraction          float64 `mapstructure:"missed_penalty_fraction" validate:"gte=0,lte=1"`
	PrecisionCookingWasteRefund    float64 `mapstructure:"precision_cooking_waste_refund" validate:"gte=0,lte=1"`
	SecondLocationRewardBonus      float64 `mapstructure:"second_location_reward_bonus" validate:"gte=0"`

	StartingMoney        int     `mapstructure:"starting_money" validate:"gte=0"`
	ReputationStarting   float64 `mapstructure:"reputation_starting" validate:"gte=0,lte=100"`
	ReputationGainOnTime float64 `mapstructure:"reputation_gain_ontime" validate:"gte=0"`
	ReputationLossLate   float64 `mapstructure:"reputation_loss_late" validate:"gte=0"`

	MachineBuildCosts      map[string]int     `mapstructure:"machine_build_costs" validate:"dive,gte=0"`
	IngredientSpawnWeights map[string]float64 `mapstructure:"ingredient_spawn_weights" validate:"required,dive,gt=0"`

	SLAWindowSize int `mapstructure:"sla_window_size" validate:"gte=1"`
}

// Defaults returns the built-in tuning.
func Defaults() Tuning {
	return Tuning{
		GridWidth:  20,
		GridHeight: 15,

		ItemSpawnInterval:  1.8,
		OrderSpawnInterval: 5.5,

		HygieneEventChance:   0.015,
		HygieneEventCooldown: 14.0,
		HygieneRecoveryRate:  0.35,
		HygieneTrainingBonus: 0.30,

		ExpansionProgressRate:   0.35,
		ExpansionDeliveryBonus:  0.002,
		ExpansionBaseNeeded:     24.0,
		FranchiseExpansionBonus: 1.6,

		TurboBeltBonus:             0.25,
		TurboOvenSpeedBonus:        0.18,
		AssemblyTableSpeed:         0.60,
		BotAutoChargeRate:          0.18,
		BotAutoDeliveryReduction:   0.8,
		DoubleSpawnIntervalDivisor: 1.75,

		LateDeliveryPenalty:            0.5,
		PriorityDispatchLateMultiplier: 0.75,
		MissedPenaltyFraction:          0.25,
		PrecisionCookingWasteRefund:    0.40,
		SecondLocationRewardBonus:      0.15,

		StartingMoney:        160,
		ReputationStarting:   35.0,
		ReputationGainOnTime: 1.5,
		ReputationLossLate:   2.5,

		MachineBuildCosts: map[string]int{
			"conveyor":  4,
			"processor": 18,
			"oven":      30,
			"bot_dock":  26,
			"assembly":  22,
		},
		IngredientSpawnWeights: map[string]float64{
			"flour":     3.0,
			"tomato":    2.5,
			"cheese":    2.5,
			"pepperoni": 1.5,
			"ham":       1.2,
			"chicken":   1.0,
			"mushroom":  1.0,
			"pepper":    0.8,
			"onion":     0.8,
			"olive":     0.7,
			"pineapple": 0.5,
		},

		SLAWindowSize: 50,
	}
}

// Load returns the tuning, applying overrides from an optional config
// file. A missing file is normal; an unreadable or invalid file logs a
// warning and yields the defaults unchanged.
func Load(path string) Tuning {
	t, err := load(path)
	if err != nil {
		slog.Warn("tuning fallback to defaults", "error", err)
		return Defaults()
	}
	return t
}

// LoadStrict is Load without the fallback: any read, parse, or
// validation problem is returned. Used by `pizzatorio validate`.
func LoadStrict(path string) (Tuning, error) {
	return load(path)
}

func load(path string) (Tuning, error) {
	defaults := Defaults()
	if path == "" {
		return defaults, nil
	}

	v := viper.New()
	setDefaults(v, defaults)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return defaults, fmt.Errorf("read tuning config: %w", err)
	}

	var t Tuning
	if err := v.Unmarshal(&t); err != nil {
		return defaults, fmt.Errorf("unmarshal tuning config: %w", err)
	}
	if err := Validate(t); err != nil {
		return defaults, fmt.Errorf("validate tuning config: %w", err)
	}
	return t, nil
}

// Validate bounds-checks a tuning struct.
func Validate(t Tuning) error {
	return validator.New().Struct(t)
}

func setDefaults(v *viper.Viper, t Tuning) {
	v.SetDefault("grid_width", t.GridWidth)
	v.SetDefault("grid_height", t.GridHeight)
	v.SetDefault("item_spawn_interval", t.ItemSpawnInterval)
	v.SetDefault("order_spawn_interval", t.OrderSpawnInterval)
	v.SetDefault("hygiene_event_chance", t.HygieneEventChance)
	v.SetDefault("hygiene_event_cooldown", t.HygieneEventCooldown)
	v.SetDefault("hygiene_recovery_rate", t.HygieneRecoveryRate)
	v.SetDefault("hygiene_training_bonus", t.HygieneTrainingBonus)
	v.SetDefault("expansion_progress_rate", t.ExpansionProgressRate)
	v.SetDefault("expansion_delivery_bonus", t.ExpansionDeliveryBonus)
	v.SetDefault("expansion_base_needed", t.ExpansionBaseNeeded)
	v.SetDefault("franchise_expansion_bonus", t.FranchiseExpansionBonus)
	v.SetDefault("turbo_belt_bonus", t.TurboBeltBonus)
	v.SetDefault("turbo_oven_speed_bonus", t.TurboOvenSpeedBonus)
	v.SetDefault("assembly_table_speed", t.AssemblyTableSpeed)
	v.SetDefault("bot_auto_charge_rate", t.BotAutoChargeRate)
	v.SetDefault("bot_auto_delivery_reduction", t.BotAutoDeliveryReduction)
	v.SetDefault("double_spawn_interval_divisor", t.DoubleSpawnIntervalDivisor)
	v.SetDefault("late_delivery_penalty", t.LateDeliveryPenalty)
	v.SetDefault("priority_dispatch_late_multiplier", t.PriorityDispatchLateMultiplier)
	v.SetDefault("missed_penalty_fraction", t.MissedPenaltyFraction)
	v.SetDefault("precision_cooking_waste_refund", t.PrecisionCookingWasteRefund)
	v.SetDefault("second_location_reward_bonus", t.SecondLocationRewardBonus)
	v.SetDefault("starting_money", t.StartingMoney)
	v.SetDefault("reputation_starting", t.ReputationStarting)
	v.SetDefault("reputation_gain_ontime", t.ReputationGainOnTime)
	v.SetDefault("reputation_loss_late", t.ReputationLossLate)
	v.SetDefault("machine_build_costs", t.MachineBuildCosts)
	v.SetDefault("ingredient_spawn_weights", t.IngredientSpawnWeights)
	v.SetDefault("sla_window_size", t.SLAWindowSize)
}
