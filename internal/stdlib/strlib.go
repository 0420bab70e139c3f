package stdlib

import (
	"strings"

	"lumen/internal/errors"
	"lumen/internal/value"
	"lumen/internal/vm"
)

// installString registers the string table: upper, lower, split, trim,
// byte and sub.
func installString(v *vm.VM) {
	tbl := value.NewTable()

	tableBuiltin(tbl, "upper", strUpper)
	tableBuiltin(tbl, "lower", strLower)
	tableBuiltin(tbl, "split", strSplit)
	tableBuiltin(tbl, "trim", strTrim)
	tableBuiltin(tbl, "byte", strByte)
	tableBuiltin(tbl, "sub", strSub)

	v.SetGlobal("string", value.FromTable(tbl))
}

func stringArg(h value.Host) (string, error) {
	v, ok := h.NextArg()
	if !ok || !v.IsString() {
		return "", errors.NewCustomError("expected a string argument")
	}
	return v.AsString(), nil
}

// optionalStringArg reads the next argument as a string if present,
// otherwise yields def — the Go analogue of the original's optional!
// macro.
func optionalStringArg(h value.Host, def string) (string, error) {
	v, ok := h.NextArg()
	if !ok {
		return def, nil
	}
	if !v.IsString() {
		return "", errors.NewCustomError("expected a string argument")
	}
	return v.AsString(), nil
}

func optionalNumberArg(h value.Host, def float64) (float64, error) {
	v, ok := h.NextArg()
	if !ok {
		return def, nil
	}
	if !v.IsNumber() {
		return 0, errors.NewCustomError("expected a number argument")
	}
	return v.AsNumber(), nil
}

func strUpper(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	return value.String(strings.ToUpper(s)), nil
}

func strLower(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	return value.String(strings.ToLower(s)), nil
}

func strSplit(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	pat, err := optionalStringArg(h, " ")
	if err != nil {
		return value.Nil(), err
	}
	parts := strings.Split(s, pat)
	elems := make([]value.Value, len(parts))
	for i, p := range parts {
		elems[i] = value.String(p)
	}
	return value.FromArray(value.NewArray(elems)), nil
}

func strTrim(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	return value.String(strings.TrimSpace(s)), nil
}

func strByte(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	pos, err := optionalNumberArg(h, 0)
	if err != nil {
		return value.Nil(), err
	}
	idx := int(pos)
	if idx < 0 || idx >= len(s) {
		return value.Number(0), nil
	}
	return value.Number(float64(s[idx])), nil
}

func strSub(h value.Host) (value.Value, error) {
	s, err := stringArg(h)
	if err != nil {
		return value.Nil(), err
	}
	length := len(s)
	startN, err := numberArg(h)
	if err != nil {
		return value.Nil(), err
	}
	endN, err := optionalNumberArg(h, float64(length))
	if err != nil {
		return value.Nil(), err
	}

	start := clampIdx(int(startN), 0, length)
	end := clampIdx(int(endN), 0, length)
	start = clampIdx(start, 0, end)

	return value.String(s[start:end]), nil
}

func clampIdx(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
