package detector

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

func statRecord(pair, venue string, price float64) domain.PriceRecord {
	return domain.PriceRecord{
		Pair: pair, Venue: venue, Price: price, Liquidity: 500_000,
		Slot: 1000, ObservedAt: time.Now().UTC(), FeeRate: 0.0025,
	}
}

// seedSpreads drives the detector through one scan per desired spread value.
// With beta=1 and pairB pinned at price 1, spread = ln(priceA).
func seedSpreads(t *testing.T, det *Statistical, src *stubSource, spreads []float64) Result {
	t.Helper()
	var last Result
	for _, s := range spreads {
		src.set(statRecord("SOL/USDC", "orca", math.Exp(s)))
		src.set(statRecord("MSOL/USDC", "orca", 1.0))
		res, err := det.Scan(context.Background(), "SOL/USDC")
		if err != nil {
			t.Fatal(err)
		}
		last = res
	}
	return last
}

func statConfig(entry, stop float64) StatisticalConfig {
	return StatisticalConfig{
		EntryZScore:    entry,
		ExitZScore:     0.5,
		StopZScore:     stop,
		WindowSize:     50,
		MinSamples:     5,
		StaleThreshold: time.Minute,
		SizeFraction:   0.05,
	}
}

// alternating ±0.01 spreads give mean 0 and population stddev 0.01, so a
// 0.05 observation lands around z = 2.4 after joining the window.
var baseSpreads = []float64{0.01, -0.01, 0.01, -0.01, 0.01, -0.01, 0.01, -0.01}

func TestStatisticalEntrySignal(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(2.0, 1e6), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	if res := seedSpreads(t, det, src, baseSpreads); res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("no signal expected while the spread oscillates around its mean")
	}

	res := seedSpreads(t, det, src, []float64{0.05})
	opp := res.Opportunity
	if opp == nil {
		t.Fatal("expected a divergence signal")
	}
	if opp.Type != domain.OpportunityStatistical {
		t.Errorf("type = %v", opp.Type)
	}
	// Positive z: pair A is rich, so the route sells A and buys B on the
	// same venue.
	if opp.BuyVenue != "orca" || opp.SellVenue != "orca" {
		t.Errorf("venues = %s/%s, want orca/orca", opp.BuyVenue, opp.SellVenue)
	}
	if opp.Confidence < 0 || opp.Confidence > 1 {
		t.Errorf("confidence = %v out of [0,1]", opp.Confidence)
	}
}

func TestStatisticalMinSamples(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(0.1, 1e6), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	// Fewer than MinSamples observations must never signal, even with a
	// trivially low entry threshold.
	res := seedSpreads(t, det, src, []float64{0.01, -0.01, 0.5})
	if res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("signal before MinSamples observations")
	}
}

func TestStatisticalBreakdownAdvisory(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(1.0, 2.0), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	seedSpreads(t, det, src, baseSpreads)
	res := seedSpreads(t, det, src, []float64{0.05})
	if res.Opportunity != nil {
		t.Fatal("z beyond the stop must not be traded")
	}
	adv := res.Advisory
	if adv == nil {
		t.Fatal("expected a breakdown advisory")
	}
	if math.Abs(adv.ZScore) <= 2.0 {
		t.Errorf("advisory z = %v, want |z| > stop 2.0", adv.ZScore)
	}
}

func TestStatisticalConstantSpread(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(2.0, 3.0), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	// A flat spread has zero variance; the std floor must suppress signals
	// instead of dividing by zero.
	res := seedSpreads(t, det, src, []float64{0.02, 0.02, 0.02, 0.02, 0.02, 0.02, 0.02})
	if res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("constant spread must not signal")
	}
}

func TestStatisticalSingleObservationPerUpdate(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(1.0, 2.0), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	seedSpreads(t, det, src, baseSpreads)
	res := seedSpreads(t, det, src, []float64{0.05})
	if res.Advisory == nil {
		t.Fatal("expected a breakdown advisory")
	}

	// A sweep also scans the couple through its other member pair. The
	// records are unchanged, so this is the same observation: no second
	// window push and no duplicate advisory.
	res, err := det.Scan(context.Background(), "MSOL/USDC")
	if err != nil {
		t.Fatal(err)
	}
	if res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("unchanged records re-scanned via the other pair must not re-signal")
	}

	// Same for a repeat scan through the original pair.
	res, err = det.Scan(context.Background(), "SOL/USDC")
	if err != nil {
		t.Fatal(err)
	}
	if res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("unchanged records must not re-signal")
	}
}

func TestStatisticalIgnoresUnrelatedPair(t *testing.T) {
	src := newStubSource()
	det := NewStatistical(src, statConfig(2.0, 3.0), discard())
	det.SetCalibration(Couple{PairA: "SOL/USDC", PairB: "MSOL/USDC", Venue: "orca"}, 1.0, 0)

	res, err := det.Scan(context.Background(), "ETH/USDC")
	if err != nil {
		t.Fatal(err)
	}
	if res.Opportunity != nil || res.Advisory != nil {
		t.Fatal("pair outside every couple must be a no-op")
	}
}
