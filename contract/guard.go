package contract

import (
	"fmt"

	"github.com/archlens/pulse/buildmode"
)

// Guard is a scoped-acquisition object backing `invariant` and `ensure`:
// it binds a predicate and a source location at construction and
// re-evaluates the predicate on Release. The usual call-site shape is:
//
//	g := ctx.Ensure(pred, loc)
//	defer func() {
//	    r := recover()
//	    if err := g.Release(r); err != nil {
//	        panic(err)
//	    }
//	    if r != nil {
//	        panic(r)
//	    }
//	}()
//
// Passing recover()'s result into Release lets it distinguish an
// unwinding release (secondary failures are swallowed, per §4.6) from a
// normal-return release (failures propagate per build-mode policy).
type Guard struct {
	ctx       Context
	kind      Kind
	predicate func() bool
	loc       Location
}

// Invariant constructs a Guard checked at both scope entry and scope
// exit. The entry-time check is performed immediately and its result
// returned so the caller can propagate a construction-time failure the
// same way as a release-time one.
func (c Context) Invariant(predicate func() bool, loc Location) (*Guard, error) {
	g := &Guard{ctx: c, kind: KindInvariant, predicate: predicate, loc: loc}

	return g, g.evaluate(false)
}

// Ensure constructs a Guard checked only at scope exit.
func (c Context) Ensure(predicate func() bool, loc Location) *Guard {
	return &Guard{ctx: c, kind: KindEnsure, predicate: predicate, loc: loc}
}

// Release re-evaluates the guard's predicate. panicValue should be the
// result of calling recover() at the defer site: non-nil means the
// release is happening during stack unwinding, in which case a failure
// is recorded and swallowed rather than returned, preventing a secondary
// fault from masking the original panic.
func (g *Guard) Release(panicValue any) error {
	return g.evaluate(panicValue != nil)
}

func (g *Guard) evaluate(unwinding bool) error {
	if g.predicate() {
		return nil
	}

	message := fmt.Sprintf("%s predicate failed", g.kind)

	g.ctx.emit(g.kind, g.loc, message)

	if unwinding {
		return nil
	}

	if buildmode.ContractPropagates(g.ctx.Mode) {
		return &Violation{Kind: g.kind, Message: message, Location: g.loc}
	}

	return nil
}
