package catalog

// Map resolves a raw good to the good it is priced as. It never fails:
// goods the catalog does not know map to themselves.
//
// Resolution order:
//  1. exact entry (variant and wear included)
//  2. entry for the bare good, if its group covers all variants
//  3. entry for the bare good, if the good has durability
//  4. the good itself
//
// A bare-good group that does not cover all variants is ignored for
// goods without durability. Those variants keep their own price track.
func (c *Catalog) Map(g RawGood) GoodMapping {
	condition := g.Condition()

	if e, ok := c.Lookup(g); ok {
		return GoodMapping{Representative: e.Representative, RelativeValue: e.RelativeValue, Condition: condition}
	}

	if e, ok := c.LookupBare(g); ok {
		if e.AllVariants || g.Durable() {
			return GoodMapping{Representative: e.Representative, RelativeValue: e.RelativeValue, Condition: condition}
		}
	}

	return GoodMapping{Representative: g.Canonical(), RelativeValue: 1, Condition: condition}
}
