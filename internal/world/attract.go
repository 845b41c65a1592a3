package world

import "runtime"

// AttractFunc scores how appealing a building kind is at an hour of the day.
type AttractFunc func(hour int) float64

// Options names the behaviours a City is built with.
type Options struct {
	Residential AttractFunc
	Business    AttractFunc
	Square      AttractFunc

	NoiseSeed      int64
	NoiseAmplitude float64 // 0 disables noise; 0.3 means scores vary by up to ±30%

	Workers int // goroutines used to finalize district members
}

// DefaultOptions returns the stock attractiveness schedule without noise.
func DefaultOptions() Options {
	return Options{
		Residential: ResidentialAttraction,
		Business:    BusinessAttraction,
		Square:      SquareAttraction,
		Workers:     runtime.NumCPU(),
	}
}

// ResidentialAttraction is constant: home is always an option.
func ResidentialAttraction(int) float64 { return 1 }

// BusinessAttraction dips over the lunch hours.
func BusinessAttraction(hour int) float64 {
	if hour >= 11 && hour < 13 {
		return 1
	}
	return 10
}

// SquareAttraction favours daytime.
func SquareAttraction(hour int) float64 {
	if hour >= 8 && hour < 20 {
		return 3
	}
	return 0.5
}

// UpdateAttractiveness rescores every region for the given day and hour.
// Must not run concurrently with agents choosing targets.
func (c *City) UpdateAttractiveness(day, hour int) {
	for _, r := range c.regions {
		r.attractiveness = c.score(r, day, hour)
	}
}

func (c *City) score(r *Region, day, hour int) float64 {
	var base float64
	switch r.Kind {
	case KindResidential:
		base = c.opts.Residential(hour)
	case KindBusiness:
		base = c.opts.Business(hour)
	case KindSquare:
		base = c.opts.Square(hour)
	default:
		return 0
	}
	if c.opts.NoiseAmplitude <= 0 {
		return base
	}

	// Each region walks its own line through the noise field as time passes.
	n := c.noise.Eval2(float64(r.ID)*7.31, float64(day*24+hour)*0.15)
	return max(0, base*(1+c.opts.NoiseAmplitude*(2*n-1)))
}
