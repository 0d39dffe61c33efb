package spoilage

import "math"

// StaticRate computes the instantaneous spoilage rate from the
// exponential Q10 law: the rate multiplies by q10 for every 10 °C above
// the reference temperature. Output is unbounded; callers clamp.
func StaticRate(temp, refTemp, q10, baseRate float64) float64 {
	return baseRate * math.Pow(q10, (temp-refTemp)/10.0)
}

// AdaptiveRate re-estimates the Q10 parameters from the last window
// samples of the raw signal histories before applying the static law:
//
//   - reference temperature is the recent inside mean, biased toward the
//     outside mean in proportion to how often the door was open;
//   - the decay constant inflates with inside-temperature variability;
//   - an outside-coupling modifier boosts the rate when the current
//     temperature sits close to a volatile outside mean;
//   - rate bounds widen with humidity and door-open frequency.
//
// With an empty inside history it falls back to StaticRate at a 25 °C
// reference.
func AdaptiveRate(temp float64, inside, outside, humidity, door []float64, baseQ10, baseRate float64, window int) float64 {
	inside = tail(inside, window)
	outside = tail(outside, window)
	humidity = tail(humidity, window)
	door = tail(door, window)

	if len(inside) == 0 {
		return StaticRate(temp, 25.0, baseQ10, baseRate)
	}

	doorFreq := Mean(door)
	insideMean := Mean(inside)
	outsideMean := Mean(outside)
	refTemp := insideMean + 0.5*doorFreq*(outsideMean-insideMean)

	q10 := baseQ10 * (1 + Std(inside)/10.0)

	delta := 0.0
	if len(outside) > 0 {
		delta = math.Abs(temp - outsideMean)
	}
	modifier := 1 + (0.05+Std(outside)/100.0)*math.Exp(-delta/5.0)

	humidityAvg := Mean(humidity) / 100.0
	minRate := 0.5 * humidityAvg
	maxRate := 5.0 * (1 + doorFreq + humidityAvg)

	rate := StaticRate(temp, refTemp, q10, baseRate) * modifier
	return clamp(rate, minRate, maxRate)
}
