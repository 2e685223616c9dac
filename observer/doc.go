// Package observer provides pipeline.Observer implementations.
//
//   - LogObserver: logs runs and handler invocations with zerolog. Stage
//     events go to debug, failed runs and panicking handlers to error.
//   - MetricsObserver: records Prometheus counters, histograms and an
//     in-flight gauge per pipeline name.
//
// Combine them with pipeline.MultiObserver, or register them by name in a
// config.ObserverRegistry so YAML pipelines can reference them.
package observer
