package application

import "log/slog"

const ModuleName = "distribution/claim-allocation-engine"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
