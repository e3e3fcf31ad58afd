package reconciler

import (
	"slices"
	"strconv"
	"testing"

	"github.com/vango-dev/reconciler/pkg/element"
)

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

func BenchmarkMount1000(b *testing.B) {
	keys := benchKeys(1000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h := newHarness(b)
		h.render(keyedList(keys...))
	}
}

func BenchmarkReverse1000(b *testing.B) {
	keys := benchKeys(1000)
	h := newHarness(b)
	h.render(keyedList(keys...))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slices.Reverse(keys)
		h.render(keyedList(keys...))
	}
}

func BenchmarkStateUpdate(b *testing.B) {
	h := newHarness(b)
	var set Setter[int]
	h.render(element.New(counter(0, &set)))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		set.Set(i)
		h.loop.RunUntilIdle()
	}
}
