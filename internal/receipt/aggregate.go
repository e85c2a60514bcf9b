package receipt

// Aggregate merges per-pass field sets into one consensus field set by
// majority vote. For each field the most common value across passes
// wins; ties break toward the value seen first in pass order, which
// keeps the result deterministic because the pass order is fixed.
//
// A field recovered by a single pass survives with that value. Zero
// usable passes yield an empty field set.
func Aggregate(passes []Fields) Fields {
	var out Fields
	for _, a := range fieldAccessors {
		var order []string
		counts := make(map[string]int)
		for i := range passes {
			v := a.get(&passes[i])
			if v == "" {
				continue
			}
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
		best, bestCount := "", 0
		for _, v := range order {
			if counts[v] > bestCount {
				best, bestCount = v, counts[v]
			}
		}
		if best != "" {
			a.set(&out, best)
		}
	}
	return out
}
