// Optional Prometheus exposition of ColumnStats.
package column

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// statsCollector adapts a Column's ColumnStats to prometheus.Collector
// for a process that already runs a registry. Nothing on the write
// path depends on this type existing; Collect just reads the same
// counters Stats() returns.
type statsCollector struct {
	column *Column

	queryHit        *prometheus.Desc
	queryMiss       *prometheus.Desc
	removeMiss      *prometheus.Desc
	inserted        *prometheus.Desc
	removed         *prometheus.Desc
	reindexBatches  *prometheus.Desc
	reindexMigrated *prometheus.Desc
}

// NewStatsCollector wraps c as a prometheus.Collector labelled with name.
func NewStatsCollector(c *Column, name string) prometheus.Collector {
	labels := prometheus.Labels{"column": name}
	return &statsCollector{
		column:          c,
		queryHit:        prometheus.NewDesc("columndb_query_hit_total", "Resolved gets by tier.", []string{"tier"}, labels),
		queryMiss:       prometheus.NewDesc("columndb_query_miss_total", "Gets that resolved to nothing.", nil, labels),
		removeMiss:      prometheus.NewDesc("columndb_remove_miss_total", "Deletes of an absent key.", nil, labels),
		inserted:        prometheus.NewDesc("columndb_inserted_total", "Write plans that inserted or updated a value.", nil, labels),
		removed:         prometheus.NewDesc("columndb_removed_total", "Write plans that removed a value.", nil, labels),
		reindexBatches:  prometheus.NewDesc("columndb_reindex_batches_total", "Reindex drain steps performed.", nil, labels),
		reindexMigrated: prometheus.NewDesc("columndb_reindex_migrated_total", "Entries migrated by reindex drain steps.", nil, labels),
	}
}

func (sc *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.queryHit
	ch <- sc.queryMiss
	ch <- sc.removeMiss
	ch <- sc.inserted
	ch <- sc.removed
	ch <- sc.reindexBatches
	ch <- sc.reindexMigrated
}

func (sc *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := sc.column.Stats()
	for tier, v := range s.QueryHit {
		ch <- prometheus.MustNewConstMetric(sc.queryHit, prometheus.CounterValue, float64(v), strconv.Itoa(tier))
	}
	ch <- prometheus.MustNewConstMetric(sc.queryMiss, prometheus.CounterValue, float64(s.QueryMiss))
	ch <- prometheus.MustNewConstMetric(sc.removeMiss, prometheus.CounterValue, float64(s.RemoveMiss))
	ch <- prometheus.MustNewConstMetric(sc.inserted, prometheus.CounterValue, float64(s.Inserted))
	ch <- prometheus.MustNewConstMetric(sc.removed, prometheus.CounterValue, float64(s.Removed))
	ch <- prometheus.MustNewConstMetric(sc.reindexBatches, prometheus.CounterValue, float64(s.ReindexBatches))
	ch <- prometheus.MustNewConstMetric(sc.reindexMigrated, prometheus.CounterValue, float64(s.ReindexMigrated))
}
