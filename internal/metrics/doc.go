// Package metrics exposes Prometheus metrics for validation runs.
//
// clavcheck is a batch tool, so metrics are not scraped over HTTP. A
// Recorder collects one or more runs into its own registry and
// WriteTextfile writes them in the text exposition format for the node
// exporter textfile collector.
package metrics
