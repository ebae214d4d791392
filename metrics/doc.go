// Package metrics binds named, tagged gauges to live value sources.
//
// A Sink never stores values: every binding keeps its ValueSource and the
// backend re-evaluates it on each scrape. Three sinks are provided:
//
//   - OTelSink registers Float64ObservableGauge instruments on an
//     OpenTelemetry meter.
//   - PrometheusSink registers one collector per metric name on a
//     prometheus.Registerer.
//   - MemorySink evaluates bindings on demand and lists them.
//
// Registering the same name and tags twice fails with ErrDuplicateGauge.
// A source error drops that sample for the current scrape and is passed to
// the configured ErrorHandler.
package metrics
