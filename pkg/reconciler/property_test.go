package reconciler

import (
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/vango-dev/reconciler/pkg/element"
)

// TestKeyedListProperty renders random sequences of keyed lists and checks
// that the host matches each list and that surviving keys keep their host
// node.
func TestKeyedListProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(t)
		universe := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		prev := map[string]uint64{}

		steps := rapid.IntRange(1, 8).Draw(rt, "steps")
		for step := 0; step < steps; step++ {
			perm := rapid.Permutation(universe).Draw(rt, "perm")
			n := rapid.IntRange(0, len(perm)).Draw(rt, "n")
			keys := perm[:n]

			h.render(keyedList(keys...))

			if got, want := h.container.TextContent(), strings.Join(keys, ""); got != want {
				rt.Fatalf("step %d: text %q, want %q", step, got, want)
			}
			next := map[string]uint64{}
			for _, k := range keys {
				li := liByText(h.container, k)
				if li == nil {
					rt.Fatalf("step %d: no li for %s", step, k)
				}
				if id, ok := prev[k]; ok && id != li.ID {
					rt.Fatalf("step %d: key %s recreated (%d -> %d)", step, k, id, li.ID)
				}
				next[k] = li.ID
			}
			if d := h.host.Stats().DuplicateRemovals; d != 0 {
				rt.Fatalf("step %d: %d duplicate removals", step, d)
			}
			prev = next
		}
	})
}

// TestStateFoldProperty checks that a batch of increments and resets folds
// to the same value as applying them in order.
func TestStateFoldProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(t)
		var set Setter[int]
		h.render(element.New(counter(0, &set)))

		ops := rapid.SliceOfN(rapid.IntRange(-3, 5), 1, 20).Draw(rt, "ops")
		want := 0
		for _, op := range ops {
			op := op
			if op < 0 {
				set.Set(0)
				want = 0
				continue
			}
			set.Update(func(n int) int { return n + op })
			want += op
		}
		h.loop.RunUntilIdle()

		if got := h.container.TextContent(); got != strconv.Itoa(want) {
			rt.Fatalf("state %s, want %d", got, want)
		}
	})
}
