package obj

// maxPower is the number of entries in the power-of-ten tables.
// Exponents at or above it produce a multiplier of 0.
const maxPower = 20

var powersPos = [maxPower]float64{
	1.0e0, 1.0e1, 1.0e2, 1.0e3, 1.0e4, 1.0e5, 1.0e6, 1.0e7, 1.0e8, 1.0e9,
	1.0e10, 1.0e11, 1.0e12, 1.0e13, 1.0e14, 1.0e15, 1.0e16, 1.0e17, 1.0e18, 1.0e19,
}

var powersNeg = [maxPower]float64{
	1.0e0, 1.0e-1, 1.0e-2, 1.0e-3, 1.0e-4, 1.0e-5, 1.0e-6, 1.0e-7, 1.0e-8, 1.0e-9,
	1.0e-10, 1.0e-11, 1.0e-12, 1.0e-13, 1.0e-14, 1.0e-15, 1.0e-16, 1.0e-17, 1.0e-18, 1.0e-19,
}

// parseInt reads an optionally negative decimal integer at p.
// There is no overflow check; very long digit runs wrap.
// A position with no digits reads as 0.
func parseInt(buf []byte, p int) (int, int) {
	sign := 1
	if at(buf, p) == '-' {
		sign = -1
		p++
	}

	num := 0
	for isDigit(at(buf, p)) {
		num = 10*num + int(buf[p]-'0')
		p++
	}

	return sign * num, p
}

// parseFloat reads a decimal float at p after skipping leading whitespace.
// Missing digits read as 0. Exponents are looked up in a fixed table, so any
// exponent of 20 or more yields 0.
func parseFloat(buf []byte, p int) (float32, int) {
	p = skipWhitespace(buf, p)

	sign := 1.0
	switch at(buf, p) {
	case '+':
		p++
	case '-':
		sign = -1.0
		p++
	}

	num := 0.0
	for isDigit(at(buf, p)) {
		num = 10.0*num + float64(buf[p]-'0')
		p++
	}

	if at(buf, p) == '.' {
		p++
	}

	fra := 0.0
	div := 1.0
	for isDigit(at(buf, p)) {
		fra = 10.0*fra + float64(buf[p]-'0')
		div *= 10.0
		p++
	}

	num += fra / div

	if isExponent(at(buf, p)) {
		p++

		powers := &powersPos
		switch at(buf, p) {
		case '+':
			p++
		case '-':
			powers = &powersNeg
			p++
		}

		exp := 0
		for isDigit(at(buf, p)) {
			if exp < maxPower {
				exp = 10*exp + int(buf[p]-'0')
			}
			p++
		}

		if exp >= maxPower {
			num = 0
		} else {
			num *= powers[exp]
		}
	}

	return float32(sign * num), p
}
