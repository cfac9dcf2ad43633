package config

// ObservabilityConfig controls OTLP trace export.
// Export stays disabled until OTLPEndpoint is set, so local runs and tests
// never try to reach a collector.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	Environment  string `mapstructure:"environment" json:"environment"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Enabled reports whether traces should be exported.
func (o ObservabilityConfig) Enabled() bool {
	return o.OTLPEndpoint != ""
}
