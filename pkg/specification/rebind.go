package specification

import "fmt"

// Rebind returns a copy of expr in which every reference to from is replaced
// by to. Literals, field names and operators are preserved as they are.
func Rebind(expr Expr, from, to *Param) Expr {
	switch e := expr.(type) {
	case *Param:
		if e == from {
			return to
		}

		return e
	case FieldExpr:
		if e.Param == from {
			return FieldExpr{Param: to, Name: e.Name}
		}

		return e
	case ConstExpr:
		return e
	case CompareExpr:
		return CompareExpr{Op: e.Op, Left: Rebind(e.Left, from, to), Right: Rebind(e.Right, from, to)}
	case BitAndExpr:
		return BitAndExpr{Left: Rebind(e.Left, from, to), Right: Rebind(e.Right, from, to)}
	case AndExpr:
		return AndExpr{Left: Rebind(e.Left, from, to), Right: Rebind(e.Right, from, to)}
	case OrExpr:
		return OrExpr{Left: Rebind(e.Left, from, to), Right: Rebind(e.Right, from, to)}
	case NotExpr:
		return NotExpr{Operand: Rebind(e.Operand, from, to)}
	}

	panic(fmt.Sprintf("specification: rebind of unknown node %T", expr))
}

// Unify moves the bodies of two predicates onto one freshly allocated param
// so they can be joined into a single tree.
func Unify(left, right *Predicate) (*Param, Expr, Expr) {
	shared := NewParam(left.Param.Name())

	return shared, Rebind(left.Body, left.Param, shared), Rebind(right.Body, right.Param, shared)
}

// Walk visits expr depth-first, parents before children. Returning false
// from fn skips the children of the current node.
func Walk(expr Expr, fn func(Expr) bool) {
	if !fn(expr) {
		return
	}

	switch e := expr.(type) {
	case CompareExpr:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case BitAndExpr:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case AndExpr:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case OrExpr:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case NotExpr:
		Walk(e.Operand, fn)
	}
}

// FreeParams lists the distinct params referenced by expr in visit order.
func FreeParams(expr Expr) []*Param {
	var (
		seen   = make(map[*Param]struct{})
		params []*Param
	)

	Walk(expr, func(e Expr) bool {
		var p *Param

		switch n := e.(type) {
		case *Param:
			p = n
		case FieldExpr:
			p = n.Param
		default:
			return true
		}

		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			params = append(params, p)
		}

		return true
	})

	return params
}
