package world

// RetentionPolicy decides whether a quad should leave memory once it has been saved.
type RetentionPolicy interface {
	ShouldEvict(q QuadCoord) bool
}

// RetentionFunc adapts a plain function to RetentionPolicy.
type RetentionFunc func(q QuadCoord) bool

func (f RetentionFunc) ShouldEvict(q QuadCoord) bool {
	return f(q)
}

// KeepAll never evicts.
var KeepAll RetentionPolicy = RetentionFunc(func(QuadCoord) bool { return false })

// ActiveArea keeps quads inside the square of quads around the player's map
// and, on worlds without vertical linkage, on the player's level.
type ActiveArea struct {
	Origin      QuadCoord
	HalfMapSize int
	Level       int
	ZLevels     bool
}

// Contains reports whether q lies within the active bounding region and level.
func (a ActiveArea) Contains(q QuadCoord) bool {
	if !a.ZLevels && q.Z != a.Level {
		return false
	}
	return q.X >= a.Origin.X &&
		q.Y >= a.Origin.Y &&
		q.X <= a.Origin.X+a.HalfMapSize &&
		q.Y <= a.Origin.Y+a.HalfMapSize
}

func (a ActiveArea) ShouldEvict(q QuadCoord) bool {
	return !a.Contains(q)
}

// AnyOf evicts a quad when any of the given policies would. Nil policies are ignored.
func AnyOf(policies ...RetentionPolicy) RetentionPolicy {
	return RetentionFunc(func(q QuadCoord) bool {
		for _, p := range policies {
			if p != nil && p.ShouldEvict(q) {
				return true
			}
		}
		return false
	})
}
