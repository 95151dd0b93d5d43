package room

// Rand supplies chance rolls. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// chancePasses draws one uniform roll in [1,1000] and compares it against the
// scaled probability. The comparison is strictly less-than, so a chance of
// 1.0 still fails when the roll lands on exactly 1000.
func chancePasses(chance float64, rng Rand) bool {
	roll := rng.Intn(1000) + 1
	return float64(roll) < 1000*chance
}

// Satisfied reports whether funvalue passes the comparison. "range" is
// inclusive on both ends; "<" and ">" are strict; "<=" and ">=" are
// inclusive. Unknown operators and malformed bounds never pass.
func (c *FunvalueCond) Satisfied(funvalue int) bool {
	switch c.Op {
	case "range":
		return len(c.Bounds) >= 2 && c.Bounds[0] <= funvalue && funvalue <= c.Bounds[1]
	case "=":
		return len(c.Bounds) >= 1 && funvalue == c.Bounds[0]
	case "<":
		return len(c.Bounds) >= 1 && funvalue < c.Bounds[0]
	case ">":
		return len(c.Bounds) >= 1 && funvalue > c.Bounds[0]
	case "<=":
		return len(c.Bounds) >= 1 && funvalue <= c.Bounds[0]
	case ">=":
		return len(c.Bounds) >= 1 && funvalue >= c.Bounds[0]
	}
	return false
}

// ResolvePresence decides whether a conditional exit appears this load. A nil
// constraint is always present. When both a chance and a funvalue condition
// are given, both must pass. The chance condition consumes one RNG draw.
func ResolvePresence(p *PresenceConstraint, funvalue int, rng Rand) bool {
	if p == nil {
		return true
	}
	if p.Chance != nil && !chancePasses(*p.Chance, rng) {
		return false
	}
	if p.Funvalue != nil && !p.Funvalue.Satisfied(funvalue) {
		return false
	}
	return true
}

// ResolveDestination materializes a destination. Literal destinations pass
// through untouched. Otherwise resolution starts at the default; every
// chance rule draws its own fresh roll and every satisfied rule overwrites
// the selection, so with several satisfied rules the last one in list order
// wins. Funvalue rules are applied after chance rules, again last satisfied
// wins.
func ResolveDestination(d *Destination, funvalue int, rng Rand) string {
	if d.Literal != "" {
		return d.Literal
	}

	dest := d.Default
	for _, rule := range d.Chance {
		if chancePasses(rule.Prob, rng) {
			dest = rule.Alt
		}
	}
	for _, rule := range d.Funvalue {
		if rule.Cond.Satisfied(funvalue) {
			dest = rule.Alt
		}
	}
	return dest
}

// ResolveExit evaluates a full exit spec: presence first, then destination.
// Literal exits are always present. The returned bool reports presence.
func ResolveExit(spec *ExitSpec, funvalue int, rng Rand) (string, bool) {
	if spec.Literal != "" {
		return spec.Literal, true
	}
	if !ResolvePresence(spec.Presence, funvalue, rng) {
		return "", false
	}
	if spec.Destination == nil {
		return "", false
	}
	return ResolveDestination(spec.Destination, funvalue, rng), true
}
