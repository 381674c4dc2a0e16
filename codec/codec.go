package codec

// Codec is the common raw<->cooked conversion contract FixedPoint and
// IEEE754 both satisfy, letting the numeric-addressed accessor layer treat
// a register's channels uniformly regardless of which wire format backs
// them.
type Codec interface {
	ToCooked(raw uint32) float64
	ToRaw(cooked float64) uint32
}

var (
	_ Codec = FixedPoint{}
	_ Codec = IEEE754{}
)
