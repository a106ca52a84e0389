package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice_Examples(t *testing.T) {
	c := Default()

	assert.Equal(t, 100.0, c.Price(10, 2, true, SingleSided))
	assert.Equal(t, 50.0, c.Price(10, 2, true, DoubleSided))
	assert.Equal(t, 150.0, Total(100.0, 50.0))
	assert.Equal(t, 6.0, c.Price(3, 1, false, SingleSided))
}

func TestPrice_NothingToPrice(t *testing.T) {
	c := Default()

	for _, layout := range []string{SingleSided, DoubleSided} {
		for _, color := range []bool{true, false} {
			assert.Zero(t, c.Price(0, 3, color, layout))
			assert.Zero(t, c.Price(-2, 3, color, layout))
			assert.Zero(t, c.Price(5, 0, color, layout))
			assert.Zero(t, c.Price(5, -1, color, layout))
		}
	}
}

func TestPrice_Properties(t *testing.T) {
	c := Default()

	for pages := 1; pages <= 40; pages += 3 {
		for copies := 1; copies <= 20; copies += 4 {
			for _, color := range []bool{true, false} {
				single := c.Price(pages, copies, color, SingleSided)
				double := c.Price(pages, copies, color, DoubleSided)
				assert.InDelta(t, 0.5*single, double, 1e-9)
			}
			for _, layout := range []string{SingleSided, DoubleSided} {
				ratio := c.Price(pages, copies, true, layout) / c.Price(pages, copies, false, layout)
				assert.InDelta(t, 5.0/2.0, ratio, 1e-9)
			}
		}
	}
}

func TestPrice_UnknownLayoutIsSingleSided(t *testing.T) {
	c := Default()
	assert.Equal(t, c.Price(4, 1, false, SingleSided), c.Price(4, 1, false, ""))
}

func TestPrice_CustomRates(t *testing.T) {
	c := Calculator{ColorPerSide: 8, BWPerSide: 1.5}
	assert.Equal(t, 24.0, c.Price(3, 1, true, SingleSided))
	assert.Equal(t, 4.5, c.Price(3, 2, false, DoubleSided))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.3, Round2(0.1+0.2))
	assert.Equal(t, 12.35, Round2(12.345000001))
}
