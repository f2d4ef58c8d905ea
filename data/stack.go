package data

import "math"

// StackGroup accumulates value properties on top of each other.
//
// Within a row the properties stack in the order listed. When the model
// groups rows, the running totals continue across the rows of a group in
// insertion order; otherwise every row starts from zero.
type StackGroup struct {
	ID         string
	Properties []string
	// SeparateNegative stacks negative values below zero on their own
	// baseline instead of subtracting from the positive total.
	SeparateNegative bool
	// NormalizeTo rescales each group so its absolute total equals this
	// value. Zero disables normalization.
	NormalizeTo float64
}

func accumulate(pd *ProcessedData, sg StackGroup) *Stack {
	n := len(pd.RawData)
	s := &Stack{
		Group:  sg,
		Ranges: make(map[string][]Range, len(sg.Properties)),
		Min:    0,
		Max:    0,
	}
	for _, id := range sg.Properties {
		s.Ranges[id] = make([]Range, n)
	}

	partitions := pd.Groups
	if partitions == nil {
		partitions = make([]Group, 0, n)
		for row := 0; row < n; row++ {
			if !pd.Invalid[row] {
				partitions = append(partitions, Group{Rows: []int{row}})
			}
		}
	}

	for _, g := range partitions {
		var pos, neg, total float64
		for _, row := range g.Rows {
			for _, id := range sg.Properties {
				v, ok := pd.Number(id, row)
				if !ok {
					s.Ranges[id][row] = Range{Start: pos, End: pos}
					continue
				}
				var r Range
				if sg.SeparateNegative && v < 0 {
					r = Range{Start: neg, End: neg + v, Valid: true}
					neg += v
				} else {
					r = Range{Start: pos, End: pos + v, Valid: true}
					pos += v
				}
				total += math.Abs(v)
				s.Ranges[id][row] = r
			}
		}
		if sg.NormalizeTo != 0 && total != 0 {
			factor := sg.NormalizeTo / total
			for _, row := range g.Rows {
				for _, id := range sg.Properties {
					r := &s.Ranges[id][row]
					r.Start *= factor
					r.End *= factor
				}
			}
		}
		for _, row := range g.Rows {
			for _, id := range sg.Properties {
				r := s.Ranges[id][row]
				if !r.Valid {
					continue
				}
				s.Min = min(s.Min, r.Start, r.End)
				s.Max = max(s.Max, r.Start, r.End)
			}
		}
	}
	return s
}
