package dsp

// FixedParabola fits a quadratic through three equally-spaced samples
// f(0), f(1), f(2) and evaluates it at arbitrary x, used to predict the
// next sample from the three most recent decoded ones.
type FixedParabola struct {
	f     [3]float32
	coefs [3]float32
}

// NewFixedParabola fits a parabola through f0, f1, f2 (at x = 0, 1, 2).
func NewFixedParabola(f0, f1, f2 float32) FixedParabola {
	p := FixedParabola{f: [3]float32{f0, f1, f2}}
	p.computeCoefs()
	return p
}

func (p *FixedParabola) computeCoefs() {
	d := p.f[1] - p.f[0]
	e := p.f[2] - p.f[0]
	p.coefs[0] = p.f[0]
	p.coefs[1] = (4*d - e) * 0.5
	p.coefs[2] = (e - 2*d) * 0.5
}

// Eval returns the fitted curve's value at x.
func (p FixedParabola) Eval(x float32) float32 {
	return p.coefs[0] + (p.coefs[1]+p.coefs[2]*x)*x
}
