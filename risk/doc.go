// Package risk converts vulnerability records into patches with resolved
// risk scores and severity tiers.
//
// Scoring is a pure function over a fixed set of named signals: base
// severity normalized to [0,1], an additive vendor priority bonus, and an
// exploitation escalation that also floors the tier at high. The weights
// and thresholds live in Config so embedders can override them.
package risk
