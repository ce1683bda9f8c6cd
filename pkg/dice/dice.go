// Package dice rolls standard dice notation such as "1d8", "2d6+3" or
// "d20-1" on a d20.Roller, adding the bounds campaign files and tool callers
// need.
package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jwebster45206/d20"
)

// ErrNotation is returned for expressions that are not dice notation or are
// out of bounds.
var ErrNotation = errors.New("dice: invalid expression")

// Expression is a parsed dice expression of the form NdS+M.
type Expression struct {
	Count    int `json:"count"`
	Sides    int `json:"sides"`
	Modifier int `json:"modifier,omitempty"`
}

// Roll is the outcome of rolling an Expression.
type Roll struct {
	Expression string `json:"expression"`
	Rolls      []int  `json:"rolls"`
	Total      int    `json:"total"`
	Detail     string `json:"detail,omitempty"`
}

const (
	maxCount = 100
	maxSides = 1000
)

// checker validates notation against d20's grammar.
var checker = NewSeeded(1)

// Parse parses a dice expression. The count defaults to 1 when omitted.
// Spaces are ignored.
func Parse(expr string) (Expression, error) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(expr)), " ", "")

	countStr, rest, ok := strings.Cut(s, "d")
	if !ok {
		return Expression{}, fmt.Errorf("%w %q: missing 'd'", ErrNotation, expr)
	}
	e := Expression{Count: 1}
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("%w %q: bad count", ErrNotation, expr)
		}
		e.Count = n
	}
	if e.Count < 1 || e.Count > maxCount {
		return Expression{}, fmt.Errorf("%w %q: count must be between 1 and %d", ErrNotation, expr, maxCount)
	}

	checker.mu.Lock()
	_, err := checker.r.Roll(s)
	checker.mu.Unlock()
	if err != nil {
		return Expression{}, fmt.Errorf("%w %q: %v", ErrNotation, expr, err)
	}

	sidesStr := rest
	if i := strings.IndexAny(rest, "+-"); i != -1 {
		sidesStr = rest[:i]
		e.Modifier, _ = strconv.Atoi(rest[i:])
	}
	e.Sides, _ = strconv.Atoi(sidesStr)
	if e.Sides < 2 || e.Sides > maxSides {
		return Expression{}, fmt.Errorf("%w %q: sides must be between 2 and %d", ErrNotation, expr, maxSides)
	}
	return e, nil
}

// Valid reports whether expr parses as dice notation.
func Valid(expr string) bool {
	_, err := Parse(expr)
	return err == nil
}

// String renders the expression in canonical form.
func (e Expression) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// Min returns the lowest possible total.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the highest possible total.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// Roller is a d20.Roller that is safe for concurrent use.
type Roller struct {
	mu sync.Mutex
	r  *d20.Roller
}

// New wraps r.
func New(r *d20.Roller) *Roller {
	return &Roller{r: r}
}

// NewSeeded returns a reproducible Roller.
func NewSeeded(seed int64) *Roller {
	return New(d20.NewRoller(seed))
}

// Default is seeded from the clock at startup.
var Default = New(d20.NewRandomRoller())

// Roll rolls e.
func (r *Roller) Roll(e Expression) (Roll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.r.Dice(uint(e.Count), uint(e.Sides))
	if e.Modifier != 0 {
		b = b.WithModifier("modifier", e.Modifier)
	}
	out, err := b.Roll()
	if err != nil {
		return Roll{}, fmt.Errorf("%w %s: %v", ErrNotation, e, err)
	}
	return Roll{Expression: e.String(), Rolls: out.DiceRolls, Total: out.Value, Detail: out.Detail}, nil
}

// RollNotation parses and rolls expr.
func (r *Roller) RollNotation(expr string) (Roll, error) {
	e, err := Parse(expr)
	if err != nil {
		return Roll{}, err
	}
	return r.Roll(e)
}

// D20 rolls a single twenty-sided die.
func (r *Roller) D20() int {
	out, _ := r.Roll(Expression{Count: 1, Sides: 20})
	return out.Total
}
