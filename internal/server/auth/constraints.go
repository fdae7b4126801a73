package auth

import "time"

// Constraint names reported in signature errors.
const (
	ConstraintSignedWith = "signed_with"
	ConstraintExpiresAt  = "expires_at"
	ConstraintIssuedBy   = "issued_by"
)

// Constraint is one assertion evaluated against decoded claims.
type Constraint interface {
	Name() string
	Check(claims *Claims, now time.Time) bool
}

type constraintFunc struct {
	name  string
	check func(*Claims, time.Time) bool
}

func (c constraintFunc) Name() string                             { return c.name }
func (c constraintFunc) Check(claims *Claims, now time.Time) bool { return c.check(claims, now) }

// NewConstraint adapts a function into a named Constraint.
func NewConstraint(name string, check func(claims *Claims, now time.Time) bool) Constraint {
	return constraintFunc{name: name, check: check}
}

// NotExpired holds while the exp claim is absent or not before now, compared
// at second granularity.
func NotExpired() Constraint {
	return NewConstraint(ConstraintExpiresAt, func(c *Claims, now time.Time) bool {
		if c.ExpiresAt == nil {
			return true
		}
		return !isExpired(c.ExpiresAt.Time, now)
	})
}

// IssuedBy holds when the iss claim is one of issuers.
func IssuedBy(issuers ...string) Constraint {
	return NewConstraint(ConstraintIssuedBy, func(c *Claims, _ time.Time) bool {
		for _, iss := range issuers {
			if c.Issuer == iss {
				return true
			}
		}
		return false
	})
}

// Validator is the mutable constraint set passed to verify hooks.
type Validator struct {
	constraints []Constraint
}

func (v *Validator) Add(c ...Constraint) {
	v.constraints = append(v.constraints, c...)
}

func (v *Validator) Constraints() []Constraint {
	return v.constraints
}

func (v *Validator) violations(claims *Claims, now time.Time) []string {
	var out []string
	for _, c := range v.constraints {
		if !c.Check(claims, now) {
			out = append(out, c.Name())
		}
	}
	return out
}
