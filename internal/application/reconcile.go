// Package application contains use-case orchestration services.
package application

// Delta is the outcome of one reconcile cycle for one entity type: the rows
// to insert or update (addressed by stable identifier) and the stable
// identifiers of stale rows to delete. The two sets are disjoint by
// construction, so apply order is not significant.
type Delta[E any] struct {
	Upserts   []E
	DeleteIDs []string
}

// Reconcile converges a persisted entity set with a freshly fetched set.
//
// Every fetched row becomes an upsert: when a persisted row matches by
// identity, adopt receives it so the fetched row inherits its stable
// identifier; otherwise adopt receives nil and assigns a fresh one. Every
// persisted row with no matching fetched row is marked for deletion.
//
// An empty fetched set therefore tears down the whole mirror, and an empty
// persisted set makes every fetched row a fresh insert.
func Reconcile[E any](
	persisted, fetched []E,
	sameIdentity func(a, b E) bool,
	adopt func(fetched E, matched *E) E,
	idOf func(E) string,
) Delta[E] {
	delta := Delta[E]{
		Upserts:   make([]E, 0, len(fetched)),
		DeleteIDs: []string{},
	}

	for _, f := range fetched {
		var matched *E
		for i := range persisted {
			if sameIdentity(persisted[i], f) {
				matched = &persisted[i]
				break
			}
		}
		delta.Upserts = append(delta.Upserts, adopt(f, matched))
	}

	for _, p := range persisted {
		stale := true
		for _, f := range fetched {
			if sameIdentity(p, f) {
				stale = false
				break
			}
		}
		if stale {
			delta.DeleteIDs = append(delta.DeleteIDs, idOf(p))
		}
	}

	return delta
}
