package randomvar

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// A Factory builds a random variable from its textual parameters.
type Factory func(params []string, opts ...Option) (Var, error)

var (
	factoriesLock sync.RWMutex
	factories     = map[string]Factory{
		"delta":   createDelta,
		"unif":    createUniform,
		"exp":     createExponential,
		"pareto":  createPareto,
		"normal":  createNormal,
		"poisson": createPoisson,
		"det":     createDeterministic,
	}
)

// Register makes a new kind of variable available to Create and Parse.
// Registering a kind twice panics.
func Register(kind string, f Factory) {
	factoriesLock.Lock()
	defer factoriesLock.Unlock()

	if _, found := factories[kind]; found {
		panic("random variable kind " + kind + " already registered")
	}

	factories[kind] = f
}

// Kinds lists the kinds known to Create, sorted.
func Kinds() []string {
	factoriesLock.RLock()
	defer factoriesLock.RUnlock()

	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	return kinds
}

// Create builds a variable of the given kind.
func Create(kind string, params []string, opts ...Option) (Var, error) {
	factoriesLock.RLock()
	f, found := factories[kind]
	factoriesLock.RUnlock()

	if !found {
		return nil, errors.Wrapf(ErrParse, "unknown kind %q", kind)
	}

	return f(params, opts...)
}

// Parse builds a variable from a description such as "unif(1, 5)" or
// "det(values.txt)".
func Parse(desc string, opts ...Option) (Var, error) {
	desc = strings.TrimSpace(desc)

	open := strings.IndexByte(desc, '(')
	if open <= 0 || !strings.HasSuffix(desc, ")") {
		return nil, errors.Wrapf(ErrParse, "%q", desc)
	}

	kind := strings.TrimSpace(desc[:open])
	inner := strings.TrimSpace(desc[open+1 : len(desc)-1])

	params := []string{}
	if inner != "" {
		for _, p := range strings.Split(inner, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}

	return Create(kind, params, opts...)
}

func parseFloats(kind string, params []string, n int) ([]float64, error) {
	if len(params) != n {
		return nil, errors.Wrapf(ErrParse,
			"%s: want %d parameters, got %d", kind, n, len(params))
	}

	values := make([]float64, n)
	for i, p := range params {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrParse,
				"%s: parameter %d: %q", kind, i, p)
		}
		values[i] = v
	}

	return values, nil
}

func createDelta(params []string, _ ...Option) (Var, error) {
	v, err := parseFloats("delta", params, 1)
	if err != nil {
		return nil, err
	}

	return NewDelta(v[0]), nil
}

func createUniform(params []string, opts ...Option) (Var, error) {
	v, err := parseFloats("unif", params, 2)
	if err != nil {
		return nil, err
	}

	return NewUniform(v[0], v[1], opts...), nil
}

func createExponential(params []string, opts ...Option) (Var, error) {
	v, err := parseFloats("exp", params, 1)
	if err != nil {
		return nil, err
	}

	return NewExponential(v[0], opts...), nil
}

func createPareto(params []string, opts ...Option) (Var, error) {
	v, err := parseFloats("pareto", params, 2)
	if err != nil {
		return nil, err
	}

	return NewPareto(v[0], v[1], opts...), nil
}

func createNormal(params []string, opts ...Option) (Var, error) {
	v, err := parseFloats("normal", params, 2)
	if err != nil {
		return nil, err
	}

	return NewNormal(v[0], v[1], opts...), nil
}

func createPoisson(params []string, opts ...Option) (Var, error) {
	v, err := parseFloats("poisson", params, 1)
	if err != nil {
		return nil, err
	}

	return NewPoisson(v[0], opts...), nil
}

func createDeterministic(params []string, _ ...Option) (Var, error) {
	if len(params) != 1 {
		return nil, errors.Wrapf(ErrParse,
			"det: want 1 parameter, got %d", len(params))
	}

	d, err := LoadDeterministic(params[0])
	if err != nil {
		return nil, err
	}

	return d, nil
}
