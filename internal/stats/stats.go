package stats

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Pearson computes the Pearson correlation coefficient between x and y.
// ok is false when the slices differ in length, have fewer than two
// points, or either side has zero variance (the coefficient is undefined).
func Pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0, false
	}
	mx, my := Mean(x), Mean(y)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r = sxy / math.Sqrt(sxx*syy)
	// Guard against floating point drift pushing |r| past 1.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// PearsonPValue returns the two-tailed p-value for a Pearson coefficient r
// observed over n samples, using the Student's t approximation with n-2
// degrees of freedom.
func PearsonPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		// |r| == 1: perfectly correlated, p is effectively zero.
		return 0
	}
	t := r * math.Sqrt(df/denom)
	return studentTTwoTailed(math.Abs(t), df)
}

// studentTTwoTailed returns P(|T| >= t) for a Student's t distribution with
// df degrees of freedom, via the regularized incomplete beta function.
func studentTTwoTailed(t, df float64) float64 {
	// P(|T| >= t) = I_{df/(df+t^2)}(df/2, 1/2)
	x := df / (df + t*t)
	return regIncBeta(df/2, 0.5, x)
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued fraction expansion (Lentz's method).
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta := lgamma(a+b) - lgamma(a) - lgamma(b)
	front := math.Exp(lbeta + a*math.Log(x) + b*math.Log(1-x))
	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function.
func betaCF(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		tiny    = 1e-30
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// Regression holds an ordinary least squares fit y = Intercept + Slope*x.
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
	// ResidualStd is the standard deviation of the fit residuals.
	ResidualStd float64
}

// LinearRegression fits y against x by ordinary least squares. ok is false
// when the inputs are too short, differ in length, or x has zero variance
// (the slope is undefined).
func LinearRegression(x, y []float64) (Regression, bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return Regression{}, false
	}
	mx, my := Mean(x), Mean(y)
	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx == 0 {
		return Regression{}, false
	}
	slope := sxy / sxx
	intercept := my - slope*mx

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		fit := intercept + slope*x[i]
		d := y[i] - fit
		ssRes += d * d
		dt := y[i] - my
		ssTot += dt * dt
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	return Regression{
		Slope:       slope,
		Intercept:   intercept,
		R2:          r2,
		ResidualStd: math.Sqrt(ssRes / float64(n)),
	}, true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
