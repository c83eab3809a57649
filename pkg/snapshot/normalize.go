package snapshot

import "math"

// Normalize validates a decoded snapshot at the boundary and returns a new,
// fully-populated copy. The input is not modified.
//
//   - negative counters become 0
//   - outstanding counters are capped at their totals
//   - totals missing but implied by their parts are rebuilt
//   - resolution and verification rates are derived when absent
//   - country and region roll-up fields are derived from their children
//     when the source left them at 0
//
// Normalize(nil) returns an empty snapshot.
func Normalize(in *Snapshot) *Snapshot {
	if in == nil {
		in = &Snapshot{}
	}
	out := *in

	out.ExtractionStats = ExtractionStats{
		StudiesProcessed: nonNeg(in.ExtractionStats.StudiesProcessed),
		FilesProcessed:   copyCounts(in.ExtractionStats.FilesProcessed),
		RecordsExtracted: copyCounts(in.ExtractionStats.RecordsExtracted),
		Errors:           nonNeg(in.ExtractionStats.Errors),
	}

	out.Queries = normalizeQueries(in.Queries)
	out.SAEs = normalizeSAEs(in.SAEs)

	out.Visits = Visits{
		TotalMissing:  nonNeg(in.Visits.TotalMissing),
		Overdue30Days: nonNeg(in.Visits.Overdue30Days),
	}
	if out.Visits.Overdue30Days > out.Visits.TotalMissing {
		out.Visits.TotalMissing = out.Visits.Overdue30Days
	}

	out.Lab = Lab{TotalIssues: nonNeg(in.Lab.TotalIssues)}
	out.Pages = Pages{TotalMissing: nonNeg(in.Pages.TotalMissing)}
	out.Coding = normalizeCoding(in.Coding)
	out.SDV = normalizeSDV(in.SDV)
	out.Signatures = Signatures{
		Pending: nonNeg(in.Signatures.Pending),
		Overdue: nonNeg(in.Signatures.Overdue),
	}
	if out.Signatures.Overdue > out.Signatures.Pending {
		out.Signatures.Pending = out.Signatures.Overdue
	}
	out.EDRR = EDRR{OpenIssues: nonNeg(in.EDRR.OpenIssues)}
	out.Inactivated = Inactivated{TotalForms: nonNeg(in.Inactivated.TotalForms)}

	out.Regions = normalizeRegions(in.Regions)

	out.DQITrend = copyPoints(in.DQITrend)
	if in.Trends != nil {
		out.Trends = make(map[string][]Point, len(in.Trends))
		for name, pts := range in.Trends {
			out.Trends[name] = copyPoints(pts)
		}
	}

	return &out
}

func normalizeQueries(q Queries) Queries {
	out := Queries{
		Total:  nonNeg(q.Total),
		Open:   nonNeg(q.Open),
		Closed: nonNeg(q.Closed),
		Aging: QueryAging{
			Days0To7:   nonNeg(q.Aging.Days0To7),
			Days8To14:  nonNeg(q.Aging.Days8To14),
			Days15To30: nonNeg(q.Aging.Days15To30),
			Over30:     nonNeg(q.Aging.Over30),
		},
	}
	if out.Total == 0 {
		out.Total = out.Open + out.Closed
	}
	out.Open = min(out.Open, out.Total)
	out.Closed = out.Total - out.Open

	rate := round1(ResolutionPercent(out.Total, out.Open))
	if q.ResolutionRate != nil {
		rate = clampPercent(*q.ResolutionRate)
	}
	out.ResolutionRate = &rate
	return out
}

func normalizeSAEs(s SAEs) SAEs {
	out := SAEs{
		Total:               nonNeg(s.Total),
		Open:                nonNeg(s.Open),
		PatientsWithOpenSAE: nonNeg(s.PatientsWithOpenSAE),
		SitesWithOpenSAE:    nonNeg(s.SitesWithOpenSAE),
	}
	if out.Open > out.Total {
		out.Total = out.Open
	}
	return out
}

func normalizeCoding(c Coding) Coding {
	dict := func(d CodingDictionary) CodingDictionary {
		out := CodingDictionary{Total: nonNeg(d.Total), Uncoded: nonNeg(d.Uncoded)}
		if out.Uncoded > out.Total {
			out.Total = out.Uncoded
		}
		return out
	}
	out := Coding{
		MedDRA:       dict(c.MedDRA),
		WHODD:        dict(c.WHODD),
		TotalUncoded: nonNeg(c.TotalUncoded),
	}
	if out.TotalUncoded == 0 {
		out.TotalUncoded = out.MedDRA.Uncoded + out.WHODD.Uncoded
	}
	return out
}

func normalizeSDV(s SDV) SDV {
	out := SDV{
		Total:    nonNeg(s.Total),
		Verified: nonNeg(s.Verified),
		Pending:  nonNeg(s.Pending),
	}
	if out.Total == 0 {
		out.Total = out.Verified + out.Pending
	}
	if out.Verified == 0 && out.Pending > 0 {
		out.Pending = min(out.Pending, out.Total)
		out.Verified = out.Total - out.Pending
	} else {
		out.Verified = min(out.Verified, out.Total)
		out.Pending = out.Total - out.Verified
	}

	// An absent rate over zero records reads as fully verified, matching
	// the fail-open resolution default.
	rate := round1(ResolutionPercent(out.Total, out.Pending))
	if s.VerificationRate != nil {
		rate = clampPercent(*s.VerificationRate)
	}
	out.VerificationRate = &rate
	return out
}

func normalizeRegions(in *RegionMap) *RegionMap {
	out := NewRegionMap()
	if in == nil {
		return out
	}
	for rp := in.Oldest(); rp != nil; rp = rp.Next() {
		countries := NewCountryMap()
		if rp.Value.Countries != nil {
			for cp := rp.Value.Countries.Oldest(); cp != nil; cp = cp.Next() {
				countries.Set(cp.Key, normalizeCountry(cp.Value))
			}
		}
		region := Region{
			Countries:      countries,
			TotalCountries: nonNeg(rp.Value.TotalCountries),
		}
		if region.TotalCountries == 0 {
			region.TotalCountries = countries.Len()
		}
		out.Set(rp.Key, region)
	}
	return out
}

func normalizeCountry(c Country) Country {
	sites := NewSiteMap()
	var siteTotal, siteOpen int
	if c.Sites != nil {
		for sp := c.Sites.Oldest(); sp != nil; sp = sp.Next() {
			site := Site{
				Patients:     nonNeg(sp.Value.Patients),
				TotalQueries: nonNeg(sp.Value.TotalQueries),
				OpenQueries:  nonNeg(sp.Value.OpenQueries),
			}
			if site.OpenQueries > site.TotalQueries {
				site.TotalQueries = site.OpenQueries
			}
			siteTotal += site.TotalQueries
			siteOpen += site.OpenQueries
			sites.Set(sp.Key, site)
		}
	}

	out := Country{
		TotalSites:   nonNeg(c.TotalSites),
		TotalQueries: nonNeg(c.TotalQueries),
		OpenQueries:  nonNeg(c.OpenQueries),
		Sites:        sites,
	}
	if out.TotalSites == 0 {
		out.TotalSites = sites.Len()
	}
	if out.TotalQueries == 0 && out.OpenQueries == 0 {
		out.TotalQueries = siteTotal
		out.OpenQueries = siteOpen
	}
	if out.OpenQueries > out.TotalQueries {
		out.TotalQueries = out.OpenQueries
	}
	return out
}

func nonNeg(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func copyCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = nonNeg(v)
	}
	return out
}

func copyPoints(in []Point) []Point {
	if in == nil {
		return nil
	}
	out := make([]Point, len(in))
	copy(out, in)
	return out
}
