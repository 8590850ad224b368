package filter

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func randomKeys(r *rand.Rand, n int, prefix string) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte(fmt.Sprintf("%s%016x%016x", prefix, r.Uint64(), r.Uint64()))
	}
	return out
}

func mustNew(t *testing.T, m uint64, k uint) *Filter {
	t.Helper()
	f, err := New(m, k)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", m, k, err)
	}
	return f
}

func TestNew_InvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		m    uint64
		k    uint
	}{
		{name: "zero bits", m: 0, k: 3},
		{name: "zero hashes", m: 64, k: 0},
		{name: "both zero", m: 0, k: 0},
		{name: "unallocatable bits", m: 1 << 60, k: 3},
		{name: "max bits", m: ^uint64(0), k: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := New(tc.m, tc.k)
			if err == nil || f != nil {
				t.Fatalf("expected error, got filter=%v err=%v", f, err)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestWordsFor(t *testing.T) {
	cases := map[uint64]uint64{
		1:          1,
		64:         1,
		65:         2,
		1 << 60:    1 << 54,
		^uint64(0): 1 << 58,
	}
	for m, want := range cases {
		if got := wordsFor(m); got != want {
			t.Errorf("wordsFor(%d) = %d, want %d", m, got, want)
		}
	}
}

func TestNew_WordCount(t *testing.T) {
	for _, m := range []uint64{1, 63, 64, 65, 128, 640, 1000, 4097} {
		f := mustNew(t, m, 3)
		want := int(math.Ceil(float64(m) / 64))
		if got := len(f.Words()); got != want {
			t.Errorf("m=%d: words=%d want=%d", m, got, want)
		}
		if f.NumBits() != m || f.HashCount() != 3 {
			t.Errorf("m=%d: parameters changed: m=%d k=%d", m, f.NumBits(), f.HashCount())
		}
		for i, w := range f.Words() {
			if w != 0 {
				t.Fatalf("m=%d: word %d not zero", m, i)
			}
		}
	}
}

func TestFilter_WordCountStableAfterAdds(t *testing.T) {
	f := mustNew(t, 130, 4)
	for _, k := range randomKeys(rand.New(rand.NewPCG(7, 7)), 500, "k") {
		f.Add(k)
	}
	if got := len(f.Words()); got != 3 {
		t.Fatalf("words=%d want=3", got)
	}
}

func TestFilter_NoFalseNegatives(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	f := mustNew(t, 1<<16, 5)
	first := randomKeys(r, 2000, "first:")
	for _, k := range first {
		f.Add(k)
	}
	for _, k := range first {
		if !f.MightContain(k) {
			t.Fatalf("false negative for %q", k)
		}
	}
	// later inserts never clear earlier bits
	for _, k := range randomKeys(r, 5000, "second:") {
		f.Add(k)
	}
	for _, k := range first {
		if !f.MightContain(k) {
			t.Fatalf("false negative for %q after more inserts", k)
		}
	}
}

func TestFilter_Idempotent(t *testing.T) {
	once := mustNew(t, 640, 5)
	twice := mustNew(t, 640, 5)

	once.AddString("https://a.example/1")
	twice.AddString("https://a.example/1")
	twice.AddString("https://a.example/1")

	if !reflect.DeepEqual(once.Words(), twice.Words()) {
		t.Fatalf("state differs after repeated add:\n once=%x\ntwice=%x", once.Words(), twice.Words())
	}
	if !once.Equal(twice) {
		t.Fatalf("Equal reported false for identical state")
	}
}

func TestFilter_InsertionOrderIndependent(t *testing.T) {
	keys := randomKeys(rand.New(rand.NewPCG(3, 4)), 300, "")
	fwd := mustNew(t, 2048, 4)
	rev := mustNew(t, 2048, 4)
	shuffled := mustNew(t, 2048, 4)

	for _, k := range keys {
		fwd.Add(k)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		rev.Add(keys[i])
	}
	perm := rand.New(rand.NewPCG(5, 6)).Perm(len(keys))
	for _, i := range perm {
		shuffled.Add(keys[i])
	}

	if !fwd.Equal(rev) || !fwd.Equal(shuffled) {
		t.Fatalf("bit state depends on insertion order")
	}
}

func TestFilter_Deterministic(t *testing.T) {
	f := mustNew(t, 512, 3)
	f.AddString("present")
	probe := []string{"present", "absent", "", "https://a.example/999"}
	for _, k := range probe {
		want := f.MightContainString(k)
		for i := 0; i < 50; i++ {
			if got := f.MightContainString(k); got != want {
				t.Fatalf("%q: result changed on call %d", k, i)
			}
		}
	}
}

func TestFilter_SingleBitSaturates(t *testing.T) {
	f := mustNew(t, 1, 1)
	if f.MightContainString("x") {
		t.Fatalf("empty 1-bit filter reported a member")
	}
	f.AddString("x")
	for _, k := range []string{"x", "y", "", "https://a.example/1", "\x00\xff"} {
		if !f.MightContainString(k) {
			t.Fatalf("saturated 1-bit filter reported %q absent", k)
		}
	}
	for _, k := range randomKeys(rand.New(rand.NewPCG(8, 9)), 1000, "") {
		if !f.MightContain(k) {
			t.Fatalf("saturated 1-bit filter reported %q absent", k)
		}
	}
	if f.BitsSet() != 1 || f.FillRatio() != 1 {
		t.Fatalf("expected full saturation, got set=%d ratio=%v", f.BitsSet(), f.FillRatio())
	}
}

func TestFilter_CrawlScenario(t *testing.T) {
	f := mustNew(t, 640, 5)
	f.AddString("https://a.example/1")
	if !f.MightContainString("https://a.example/1") {
		t.Fatalf("expected inserted URL to be reported present")
	}

	const trials = 10_000
	fp := 0
	for _, k := range randomKeys(rand.New(rand.NewPCG(10, 11)), trials, "https://a.example/") {
		if f.MightContain(k) {
			fp++
		}
	}
	rate := float64(fp) / trials
	predicted := FalsePositiveRate(640, 5, 1)
	if rate > predicted+0.001 {
		t.Fatalf("observed fp rate %.5f exceeds predicted %.3g by more than tolerance", rate, predicted)
	}
}

func TestFilter_FalsePositiveRateMatchesFormula(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const n = 10_000
	const trials = 100_000
	m, k, err := EstimateParameters(n, 0.01)
	if err != nil {
		t.Fatalf("EstimateParameters: %v", err)
	}
	f := mustNew(t, m, k)
	r := rand.New(rand.NewPCG(12, 13))
	for _, key := range randomKeys(r, n, "in:") {
		f.Add(key)
	}
	fp := 0
	for _, key := range randomKeys(r, trials, "out:") {
		if f.MightContain(key) {
			fp++
		}
	}
	observed := float64(fp) / trials
	predicted := FalsePositiveRate(m, k, n)
	// ~15 standard deviations of a binomial at p=0.01, N=1e5
	if math.Abs(observed-predicted) > 0.005 {
		t.Fatalf("observed fp rate %.5f, predicted %.5f (m=%d k=%d)", observed, predicted, m, k)
	}
}

func TestFilter_TestAndAdd(t *testing.T) {
	f := mustNew(t, 4096, 6)
	if f.TestAndAdd([]byte("k")) {
		t.Fatalf("first TestAndAdd reported present")
	}
	if !f.TestAndAdd([]byte("k")) {
		t.Fatalf("second TestAndAdd reported absent")
	}
	if !f.MightContainString("k") {
		t.Fatalf("key missing after TestAndAdd")
	}
}

func TestFilter_AddStringMatchesAdd(t *testing.T) {
	a := mustNew(t, 1000, 4)
	b := mustNew(t, 1000, 4)
	a.Add([]byte("same-bytes"))
	b.AddString("same-bytes")
	if !a.Equal(b) {
		t.Fatalf("string and byte keys with equal bytes produced different state")
	}
}

func TestFilter_EqualDifferentParameters(t *testing.T) {
	a := mustNew(t, 128, 3)
	b := mustNew(t, 128, 4)
	c := mustNew(t, 192, 3)
	if a.Equal(b) || a.Equal(c) {
		t.Fatalf("filters with different parameters compared equal")
	}
	var nilFilter *Filter
	if a.Equal(nilFilter) || !nilFilter.Equal(nil) {
		t.Fatalf("unexpected nil comparison result")
	}
}

func TestFilter_BitsSetBounded(t *testing.T) {
	f := mustNew(t, 1<<12, 7)
	if f.BitsSet() != 0 || f.FillRatio() != 0 {
		t.Fatalf("new filter not empty")
	}
	f.AddString("one")
	if got := f.BitsSet(); got < 1 || got > 7 {
		t.Fatalf("one key set %d bits; want 1..7", got)
	}
}

func TestNewWithEstimates(t *testing.T) {
	f, err := NewWithEstimates(1000, 0.01)
	if err != nil {
		t.Fatalf("NewWithEstimates: %v", err)
	}
	if f.NumBits() < 9000 || f.HashCount() != 7 {
		t.Fatalf("unexpected sizing m=%d k=%d", f.NumBits(), f.HashCount())
	}
	if _, err := NewWithEstimates(0, 0.01); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for n=0, got %v", err)
	}
}
