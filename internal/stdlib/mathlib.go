package stdlib

import (
	"math"
	"math/rand"

	"lumen/internal/errors"
	"lumen/internal/value"
	"lumen/internal/vm"
)

// installMath registers the math table: floor, sqrt, abs, random and
// randomseed. The generator starts from the fixed seed 1, so an
// unseeded script sees the same sequence on every run; randomseed
// reseeds it.
func installMath(v *vm.VM) {
	tbl := value.NewTable()
	src := rand.New(rand.NewSource(1))

	tableBuiltin(tbl, "floor", func(h value.Host) (value.Value, error) { return mathUnary(h, math.Floor) })
	tableBuiltin(tbl, "sqrt", func(h value.Host) (value.Value, error) { return mathUnary(h, math.Sqrt) })
	tableBuiltin(tbl, "abs", func(h value.Host) (value.Value, error) { return mathUnary(h, math.Abs) })
	tableBuiltin(tbl, "random", func(h value.Host) (value.Value, error) { return mathRandom(h, src) })
	tableBuiltin(tbl, "randomseed", func(h value.Host) (value.Value, error) { return mathRandomSeed(h, src) })

	v.SetGlobal("math", value.FromTable(tbl))
}

func numberArg(h value.Host) (float64, error) {
	v, ok := h.NextArg()
	if !ok || !v.IsNumber() {
		return 0, errors.NewCustomError("expected a number argument")
	}
	return v.AsNumber(), nil
}

func mathUnary(h value.Host, fn func(float64) float64) (value.Value, error) {
	n, err := numberArg(h)
	if err != nil {
		return value.Nil(), err
	}
	return value.Number(fn(n)), nil
}

// mathRandom matches math.random's three original arities: no
// arguments returns a float in [0,1); one argument u returns an
// integer in [1,u]; two arguments l,u return an integer in [l,u].
func mathRandom(h value.Host, src *rand.Rand) (value.Value, error) {
	first, ok := h.NextArg()
	if !ok {
		return value.Number(src.Float64()), nil
	}
	if !first.IsNumber() {
		return value.Nil(), errors.NewCustomError("expected a number argument")
	}

	second, hasSecond := h.NextArg()
	if !hasSecond {
		u := first.AsNumber()
		if u < 1.0 {
			return value.Nil(), errors.NewCustomError("interval is empty")
		}
		return value.Number(math.Floor(src.Float64()*u) + 1.0), nil
	}
	if !second.IsNumber() {
		return value.Nil(), errors.NewCustomError("expected a number argument")
	}
	l, u := first.AsNumber(), second.AsNumber()
	if l > u {
		return value.Nil(), errors.NewCustomError("interval is empty")
	}
	return value.Number(math.Floor(src.Float64()*(u-l+1.0)) + l), nil
}

func mathRandomSeed(h value.Host, src *rand.Rand) (value.Value, error) {
	n, err := numberArg(h)
	if err != nil {
		return value.Nil(), err
	}
	src.Seed(int64(n))
	return value.Nil(), nil
}
