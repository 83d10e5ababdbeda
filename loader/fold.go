package loader

import "github.com/kepler-labs/filedex/model"

// fold applies one step of the coalescing reduction table (spec §4.2) to
// a prior pending notification and a newly arrived one for the same
// path. drop is true when the pair cancels out entirely (Created then
// Deleted within the same coalescing window: nothing should be emitted
// for a file that never existed from an outside observer's perspective).
//
// Pairs not named in the table are not supposed to happen on a
// well-behaved filesystem; we fall back to keeping the newer event alone,
// which is always a safe (if slightly wasteful) choice.
func fold(prior, next model.FileNotification) (result model.FileNotification, drop bool) {
	switch {
	case prior.Kind == model.Created && next.Kind == model.Modified:
		return model.FileNotification{Kind: model.Created, Path: next.Path, ModTime: next.ModTime}, false

	case prior.Kind == model.Created && next.Kind == model.Deleted:
		return model.FileNotification{}, true

	case prior.Kind == model.Modified && next.Kind == model.Modified:
		return model.FileNotification{Kind: model.Modified, Path: next.Path, ModTime: next.ModTime}, false

	case prior.Kind == model.Modified && next.Kind == model.Deleted:
		return model.FileNotification{Kind: model.Deleted, Path: next.Path}, false

	case prior.Kind == model.Deleted && next.Kind == model.Created:
		return model.FileNotification{Kind: model.Modified, Path: next.Path, ModTime: next.ModTime}, false

	default:
		return next, false
	}
}

// removeNotificationRedundancies reduces a sequence of FileNotification
// for a single path, in arrival order, to at most one notification by
// repeatedly applying fold. An empty result means the sequence cancelled
// out entirely (e.g. Created then Deleted) and nothing should be
// emitted for that path.
func removeNotificationRedundancies(events []model.FileNotification) (model.FileNotification, bool) {
	if len(events) == 0 {
		return model.FileNotification{}, false
	}

	acc := events[0]
	have := true
	for _, n := range events[1:] {
		if !have {
			acc = n
			have = true
			continue
		}
		folded, drop := fold(acc, n)
		if drop {
			have = false
			continue
		}
		acc = folded
	}
	if !have {
		return model.FileNotification{}, false
	}
	return acc, true
}
