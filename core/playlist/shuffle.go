package playlist

import (
	"slices"

	"Atlas/model"
)

// Shuffled reports whether shuffle is on.
func (p *Playlist) Shuffled() bool { return p.shuffle != nil }

// ShuffleOrder returns the visiting order, or nil when shuffle is off.
func (p *Playlist) ShuffleOrder() []model.ID { return slices.Clone(p.shuffle) }

// SetShuffle turns shuffle on or off. Turning it on draws a fresh visiting
// order that starts with the current track. Re-sorting keeps the order.
func (p *Playlist) SetShuffle(on bool) {
	if !on {
		p.shuffle = nil
		p.modified()
		return
	}

	order := slices.Clone(p.queue)
	p.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	if cur, ok := p.Current(); ok {
		if i := slices.Index(order, cur); i > 0 {
			order[0], order[i] = order[i], order[0]
		}
	}
	if order == nil {
		order = []model.ID{}
	}
	p.shuffle = order
	p.modified()
}

// extendShuffle inserts newly queued ids at random points after the current
// track, so they are still ahead in the visiting order.
func (p *Playlist) extendShuffle(ids []model.ID) {
	start := 0
	if cur, ok := p.Current(); ok {
		start = slices.Index(p.shuffle, cur) + 1
	}
	for _, id := range ids {
		at := start + p.rng.IntN(len(p.shuffle)-start+1)
		p.shuffle = slices.Insert(p.shuffle, at, id)
	}
}
