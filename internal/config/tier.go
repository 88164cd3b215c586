package config

import (
	"fmt"
	"sort"
	"strings"
)

// Tier is a predefined model-cost tier, mapping request classes (chat,
// reasoning, background) to models rather than per-role assignments.
type Tier string

const (
	TierStandard Tier = "standard" // every class uses the provider's top model
	TierEconomy  Tier = "economy"  // background/reasoning drop to a cheaper model
	TierBudget   Tier = "budget"   // chat and reasoning drop to the mid model, background to the light one
)

// RequestClasses are the request kinds a tier assigns a model to.
// "chat" names the interactive turn path, "reasoning" longer
// planning-style turns, and "background" non-interactive calls. The
// assignments are stored in Settings.Tiers and shown by "/models" and
// "/config tier"; no request path looks a model up by class.
var RequestClasses = []string{"chat", "reasoning", "background"}

// ValidTiers returns all valid tier names.
func ValidTiers() []string {
	return []string{string(TierStandard), string(TierEconomy), string(TierBudget)}
}

// IsValidTier reports whether tier names a known tier.
func IsValidTier(tier string) bool {
	switch Tier(tier) {
	case TierStandard, TierEconomy, TierBudget:
		return true
	default:
		return false
	}
}

// tierClassAgents returns the request-class → agent-preset-name mapping
// for tier. An empty string means "use the provider's default model".
func tierClassAgents(tier Tier) map[string]string {
	switch tier {
	case TierStandard:
		return map[string]string{"chat": "", "reasoning": "", "background": ""}
	case TierEconomy:
		return map[string]string{"chat": "", "reasoning": "model-mid", "background": "model-mid"}
	case TierBudget:
		return map[string]string{"chat": "model-mid", "reasoning": "model-mid", "background": "model-light"}
	default:
		return nil
	}
}

// tierAgentPresets returns the RuntimeConfig presets a tier needs.
func tierAgentPresets(tier Tier) map[string]*RuntimeConfig {
	switch tier {
	case TierStandard:
		return map[string]*RuntimeConfig{}
	case TierEconomy, TierBudget:
		return map[string]*RuntimeConfig{
			"model-mid":   midModelPreset(),
			"model-light": lightModelPreset(),
		}
	default:
		return nil
	}
}

func midModelPreset() *RuntimeConfig {
	return &RuntimeConfig{Command: "clio-provider", Args: []string{"--model-tier", "mid"}}
}

func lightModelPreset() *RuntimeConfig {
	return &RuntimeConfig{Command: "clio-provider", Args: []string{"--model-tier", "light"}}
}

// ApplyTier writes tier's request-class and agent-preset configuration
// into settings. Only the tier-managed entries are touched; any
// unrelated Agents entries the user configured by hand are preserved.
func ApplyTier(settings *Settings, tier Tier) error {
	classAgents := tierClassAgents(tier)
	if classAgents == nil {
		return fmt.Errorf("invalid tier: %q (valid: %s)", tier, strings.Join(ValidTiers(), ", "))
	}

	if settings.Tiers == nil {
		settings.Tiers = make(map[string]map[string]string)
	}
	settings.Tiers[string(tier)] = classAgents

	if settings.Agents == nil {
		settings.Agents = make(map[string]*RuntimeConfig)
	}
	if tier == TierStandard {
		delete(settings.Agents, "model-mid")
		delete(settings.Agents, "model-light")
	} else {
		for name, rc := range tierAgentPresets(tier) {
			settings.Agents[name] = rc
		}
	}

	settings.Tier = string(tier)
	return nil
}

// GetCurrentTier infers the active tier from settings, falling back to
// matching the stored Tier field only when it's still consistent with the
// current per-class assignments — a stale field from a hand-edited config
// file must not be trusted blindly.
func GetCurrentTier(settings *Settings) string {
	if settings.Tier != "" && IsValidTier(settings.Tier) {
		expected := tierClassAgents(Tier(settings.Tier))
		if classesMatch(settings.Tiers[settings.Tier], expected) {
			return settings.Tier
		}
	}
	for _, name := range ValidTiers() {
		assigned, ok := settings.Tiers[name]
		if !ok {
			continue
		}
		if classesMatch(assigned, tierClassAgents(Tier(name))) {
			return name
		}
	}
	return ""
}

func classesMatch(actual, expected map[string]string) bool {
	for _, class := range RequestClasses {
		if actual[class] != expected[class] {
			return false
		}
	}
	return true
}

// TierDescription returns a human-readable summary of a tier's effect.
func TierDescription(tier Tier) string {
	switch tier {
	case TierStandard:
		return "every request class uses the provider's top model"
	case TierEconomy:
		return "reasoning and background requests drop to a mid-tier model"
	case TierBudget:
		return "chat and reasoning drop to a mid-tier model, background to a light one"
	default:
		return "unknown tier"
	}
}

// FormatTierTable returns a human-readable request-class -> model table
// for tier, used by the "/models" and "/config tier" handlers.
func FormatTierTable(tier Tier) string {
	classAgents := tierClassAgents(tier)
	if classAgents == nil {
		return ""
	}
	classes := append([]string(nil), RequestClasses...)
	sort.Strings(classes)
	var lines []string
	for _, class := range classes {
		agent := classAgents[class]
		if agent == "" {
			agent = "(provider default)"
		}
		lines = append(lines, fmt.Sprintf("  %-11s %s", class+":", agent))
	}
	return strings.Join(lines, "\n")
}
