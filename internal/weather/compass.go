package weather

// Compass buckets, clockwise from north.
const (
	North     = "north"
	NorthEast = "north-east"
	East      = "east"
	SouthEast = "south-east"
	South     = "south"
	SouthWest = "south-west"
	West      = "west"
	NorthWest = "north-west"
)

var compassBuckets = [...]string{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// CompassDirection maps degrees in [0, 360) onto one of eight 45° sectors
// centered on the cardinal and intercardinal points. Sectors are half-open,
// so 22.5 is north-east and 337.5 is north again.
func CompassDirection(degrees float64) string {
	upper := 22.5
	for _, bucket := range compassBuckets {
		if degrees < upper {
			return bucket
		}
		upper += 45
	}
	return North
}
