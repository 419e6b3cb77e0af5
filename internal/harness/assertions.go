package harness

import "fmt"

// evaluate checks every assertion against the result and returns the
// failures. Assertions are evaluated in declaration order and all of them
// run - a scenario report shows every violation, not just the first.
func evaluate(r *Result) []string {
	var failures []string
	for i, a := range r.Scenario.Assertions {
		if msg := check(r, a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertion %d (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func check(r *Result, a Assertion) string {
	switch a.Type {
	case AssertEventCount:
		n := 0
		for _, ev := range r.Trace {
			if ev.Kind == a.Kind {
				n++
			}
		}
		if n != a.Count {
			return fmt.Sprintf("expected %d %s events, got %d", a.Count, a.Kind, n)
		}

	case AssertPositionBetween:
		if r.Final.Position < a.Min || r.Final.Position > a.Max {
			return fmt.Sprintf("final position %v outside [%v, %v]", r.Final.Position, a.Min, a.Max)
		}

	case AssertGainBetween:
		if r.Final.Gain < a.Min || r.Final.Gain > a.Max {
			return fmt.Sprintf("final gain %v outside [%v, %v]", r.Final.Gain, a.Min, a.Max)
		}

	case AssertParamsInRange:
		if !r.GainRange.Contains(r.Final.Gain) {
			return fmt.Sprintf("final gain %v outside allowed range [%v, %v]",
				r.Final.Gain, r.GainRange.Min, r.GainRange.Max)
		}
		if !r.DeadbandRange.Contains(r.Final.Deadband) {
			return fmt.Sprintf("final deadband %v outside allowed range [%v, %v]",
				r.Final.Deadband, r.DeadbandRange.Min, r.DeadbandRange.Max)
		}
	}
	return ""
}
