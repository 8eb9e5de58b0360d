package nse

import (
	"context"
	"sync/atomic"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	stageKey, _ = tag.NewKey("stage")
	pre         = "nse_"
)

var activeWindows atomic.Int64

var Measures = struct {
	LayerDuration *stats.Float64Measure
	ActiveWindows *stats.Int64Measure
}{
	LayerDuration: stats.Float64(pre+"layer_duration_ms", "Time spent computing one label layer", stats.UnitMilliseconds),
	ActiveWindows: stats.Int64(pre+"active_windows", "Number of windows being labelled", stats.UnitDimensionless),
}

var Views = []*view.View{
	{
		Measure:     Measures.LayerDuration,
		Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000),
		TagKeys:     []tag.Key{stageKey},
	},
	{
		Measure:     Measures.ActiveWindows,
		Aggregation: view.LastValue(),
	},
}

func init() {
	if err := view.Register(Views...); err != nil {
		panic(err)
	}
}

func recordLayer(stage string, took time.Duration) {
	_ = stats.RecordWithTags(context.Background(),
		[]tag.Mutator{tag.Upsert(stageKey, stage)},
		Measures.LayerDuration.M(float64(took)/float64(time.Millisecond)))
}

func windowStarted() func() {
	stats.Record(context.Background(), Measures.ActiveWindows.M(activeWindows.Add(1)))
	return func() {
		stats.Record(context.Background(), Measures.ActiveWindows.M(activeWindows.Add(-1)))
	}
}
