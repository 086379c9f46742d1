package invariant

// Catalogue returns every rule in catalogue order.
func Catalogue() []Rule {
	var rules []Rule
	rules = append(rules, presenceRules()...)
	rules = append(rules, relationRules()...)
	rules = append(rules, justificationRules()...)
	rules = append(rules, legislationRules()...)
	rules = append(rules, structureRules()...)
	return rules
}

// Default returns the full catalogue as a Set.
func Default() *Set {
	return MustNewSet(Catalogue()...)
}
