package catalogue

// BusMetrics is the derived statistic set a Bus stat_request reports.
type BusMetrics struct {
	StopCount       int
	UniqueStopCount int
	RouteLength     float64
	Curvature       float64
}

// BusMetrics derives route statistics for name. The second return value
// is false if no such bus exists.
//
// A linear bus of N listed stops traverses forward then back, for an
// effective stop count of 2N-1; a circular bus (whose listed stops
// already repeat the first stop at the end) traverses its list once, for
// an effective count of N. Route length sums the road distance of every
// hop in that traversal (each direction counted separately, since road
// distances are not assumed symmetric); curvature is that sum divided by
// the equivalent sum of geodesic hop distances.
func (c *Catalogue) BusMetrics(name string) (BusMetrics, bool) {
	b, ok := c.buses[name]
	if !ok {
		return BusMetrics{}, false
	}

	unique := make(map[string]struct{}, len(b.stops))
	for _, s := range b.stops {
		unique[s] = struct{}{}
	}

	var roadLength, geodesicLength float64
	hop := func(from, to string) {
		road, geodesicDist := c.NeighborDistance(from, to)
		roadLength += road
		geodesicLength += geodesicDist
	}

	n := len(b.stops)
	var stopCount int
	switch b.typ {
	case BusCircular:
		stopCount = n
		for i := 0; i+1 < n; i++ {
			hop(b.stops[i], b.stops[i+1])
		}
	default: // BusLinear
		stopCount = 2*n - 1
		for i := 0; i+1 < n; i++ {
			hop(b.stops[i], b.stops[i+1])
		}
		for i := n - 1; i > 0; i-- {
			hop(b.stops[i], b.stops[i-1])
		}
	}

	curvature := 1.0
	if geodesicLength > 0 {
		curvature = roadLength / geodesicLength
	}

	return BusMetrics{
		StopCount:       stopCount,
		UniqueStopCount: len(unique),
		RouteLength:     roadLength,
		Curvature:       curvature,
	}, true
}
