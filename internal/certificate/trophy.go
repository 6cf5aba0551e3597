package certificate

// pointToMM converts typographic points to millimetres.
const pointToMM = 25.4 / 72

// Point is a position in page millimetres.
type Point struct {
	X, Y float64
}

// Circle is a ring in page millimetres.
type Circle struct {
	Center Point
	Radius float64
}

// Box is an axis-aligned rectangle in page millimetres.
type Box struct {
	X, Y, W, H float64
}

// Trophy is the vector outline drawn in place of the trophy glyph.
type Trophy struct {
	Cup       []Point
	Handles   [2]Circle
	Stem      Box
	Base      Box
	LineWidth float64
}

// Trophy lays the glyph out as a cup on a stem, sitting on the baseline and
// as tall as a capital at the glyph size.
func (g Glyph) Trophy() Trophy {
	h := g.Size * pointToMM * 0.8
	top := g.Y - h
	cupW := h * 0.8

	return Trophy{
		Cup: []Point{
			{X: g.X - cupW/2, Y: top},
			{X: g.X + cupW/2, Y: top},
			{X: g.X + cupW*0.2, Y: top + h*0.5},
			{X: g.X - cupW*0.2, Y: top + h*0.5},
		},
		Handles: [2]Circle{
			{Center: Point{X: g.X - cupW/2, Y: top + h*0.18}, Radius: h * 0.15},
			{Center: Point{X: g.X + cupW/2, Y: top + h*0.18}, Radius: h * 0.15},
		},
		Stem:      Box{X: g.X - h*0.06, Y: top + h*0.5, W: h * 0.12, H: h * 0.25},
		Base:      Box{X: g.X - h*0.3, Y: top + h*0.75, W: h * 0.6, H: h * 0.25},
		LineWidth: h * 0.06,
	}
}
