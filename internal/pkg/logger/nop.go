package logger

// NopLogger discards everything. Meant for tests and for wiring components
// that require an ILogger but should stay silent.
type NopLogger struct{}

func (NopLogger) Debug(module, message string, details map[string]interface{}) {}
func (NopLogger) Info(module, message string, details map[string]interface{})  {}
func (NopLogger) Warn(module, message string, details map[string]interface{})  {}
func (NopLogger) Error(module, message string, details map[string]interface{}) {}
func (NopLogger) Sync() error                                                  { return nil }

func (NopLogger) GetLogs(level string, limit, offset int) ([]LogEntry, error) {
	return nil, nil
}

func (NopLogger) GetLogById(id string) (*LogEntry, error) { return nil, nil }
