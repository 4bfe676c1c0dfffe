package search

import (
	"runtime"
	"sync"

	"github.com/deepteams/stego/internal/weight"
)

// parallelThreshold is the frontier size above which expansion is worth
// splitting across workers; below it the per-goroutine bookkeeping costs
// more than the work it parallelizes.
const parallelThreshold = 256

// expandConcurrent mirrors expand but fans the surviving prev nodes out
// across a bounded worker pool, the way internal/lossy/encode_parallel.go
// partitions macroblock rows across row workers: each worker claims a
// contiguous, disjoint slice of prev (never a dynamically claimed one, so
// slice order -- and therefore arena insertion order -- stays fixed) and
// builds its own retained-parent and child buffers independently. Results
// are concatenated back in original prev-node order before touching the
// shared arena, so the output is byte-for-byte identical to the
// sequential expand regardless of worker count or scheduling (§5).
func (t *Tree) expandConcurrent(prev []Node, w *weight.ByteWeights, maxWeight float32, template byte, freedomBits uint8) []Node {
	if len(prev) < parallelThreshold {
		return t.expand(prev, w, maxWeight, template, freedomBits)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(prev) {
		workers = len(prev)
	}
	if workers < 2 {
		return t.expand(prev, w, maxWeight, template, freedomBits)
	}

	type chunkResult struct {
		survivors []Node // retained parents, in chunk order
		children  []Node // children whose ParentIndex is a local survivor index
		childLink []int  // childLink[i] = index into survivors for children[i]
	}

	chunkSize := (len(prev) + workers - 1) / workers
	results := make([]chunkResult, workers)

	var wg sync.WaitGroup
	freedomCount := 1 << freedomBits
	for wkr := 0; wkr < workers; wkr++ {
		start := wkr * chunkSize
		end := start + chunkSize
		if start >= len(prev) {
			continue
		}
		if end > len(prev) {
			end = len(prev)
		}

		wg.Add(1)
		go func(wkr, start, end int) {
			defer wg.Done()
			res := chunkResult{}
			for _, p := range prev[start:end] {
				if p.Weight > maxWeight {
					continue
				}
				localIdx := len(res.survivors)
				res.survivors = append(res.survivors, Node{
					ParentIndex: p.ParentIndex,
					EncodedByte: p.EncodedByte,
				})
				for fv := 0; fv < freedomCount; fv++ {
					plain := template | byte(fv)
					emitted, newState := t.codec.Encode(plain, p.State)
					res.children = append(res.children, Node{
						EncodedByte: emitted,
						State:       newState,
						Weight:      p.Weight + w[emitted],
					})
					res.childLink = append(res.childLink, localIdx)
				}
			}
			results[wkr] = res
		}(wkr, start, end)
	}
	wg.Wait()

	next := make([]Node, 0, len(prev)*freedomCount)
	for _, res := range results {
		base := len(t.arena)
		t.arena = append(t.arena, res.survivors...)
		for i, child := range res.children {
			child.ParentIndex = base + res.childLink[i]
			next = append(next, child)
		}
	}
	return next
}
