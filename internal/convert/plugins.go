package convert

import (
	"go.uber.org/zap"

	"mdgate/internal/config"
)

// Plugin is an optional converter loaded once at startup when plugins are
// enabled. A failing loader is skipped, never fatal: plugin faults must not
// take the core formats down with them.
type Plugin struct {
	Name string
	Load func() (DocumentConverter, error)
}

func registeredPlugins() []Plugin {
	return []Plugin{
		{Name: "pdf", Load: newPDFConverter},
		{Name: "docx", Load: newDocxConverter},
	}
}

// Bootstrap builds the process-wide converter handle from settings. It runs
// exactly once, before the server accepts requests, so plugin load failures
// surface in the startup log rather than on a request path.
func Bootstrap(settings config.Settings, logger *zap.Logger) *Handle {
	return bootstrap(settings, logger, registeredPlugins())
}

func bootstrap(settings config.Settings, logger *zap.Logger, plugins []Plugin) *Handle {
	converters := []DocumentConverter{
		newHTMLConverter(),
		newCSVConverter(),
		newJSONConverter(),
		newPlainTextConverter(),
	}

	if settings.EnablePlugins {
		for _, p := range plugins {
			c, err := p.Load()
			if err != nil {
				logger.Warn("skipping converter plugin",
					zap.String("plugin", p.Name),
					zap.Error(err))
				continue
			}
			converters = append(converters, c)
			logger.Info("loaded converter plugin", zap.String("plugin", p.Name))
		}
	}

	return &Handle{converters: converters, logger: logger}
}
