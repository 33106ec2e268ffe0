// Diagnostic check, a thin policy layer over iteration (§4.5).
package column

// CheckOptions bounds and reports a CheckFromIndex run.
type CheckOptions struct {
	From  uint64 // starting chunk
	Bound uint64 // maximum entries to visit; 0 means unbounded
	// Display is called once per visited entry (or corruption) and
	// returns whether the check should continue.
	Display func(IterEntry, *Corrupted) bool
}

// CheckFromIndex walks the current index from opts.From, handing every
// entry (or fetch failure) to opts.Display, up to opts.Bound entries.
func (c *Column) CheckFromIndex(opts CheckOptions) error {
	var visited uint64
	return c.walkGeneral(opts.From, nil, func(e IterEntry, corrupt *Corrupted) (bool, error) {
		if opts.Bound > 0 && visited >= opts.Bound {
			return false, nil
		}
		visited++
		cont := true
		if opts.Display != nil {
			cont = opts.Display(e, corrupt)
		}
		return cont, nil
	})
}
