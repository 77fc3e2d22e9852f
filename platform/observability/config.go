package observability

// Config controls OpenTelemetry export (traces and metrics over OTLP gRPC).
type Config struct {
	// Enabled turns on OTLP export. When false, noop providers are installed.
	Enabled bool
	// OTLPEndpoint is the collector address, e.g. "127.0.0.1:4317" or "otel-collector:4317".
	OTLPEndpoint string
	// SamplingRatio is the fraction of root traces kept, in [0, 1].
	SamplingRatio float64
	// ServiceName is reported as service.name.
	ServiceName string
	// DeploymentEnvironment is reported as deployment.environment (local, docker).
	DeploymentEnvironment string
	// ServiceVersion is optional, usually injected at build time.
	ServiceVersion string
}
